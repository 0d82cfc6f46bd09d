// Package device holds the device model, the in-memory registry, and the
// lifecycle state machine for the Gemns fleet.
//
// # Lifecycle
//
// Devices move through the states:
//
//	disconnected → connecting → identified → paired → connected ⇄ offline
//
// plus error, which any malformed frame drives a device into and any valid
// frame clears back to connected. Offline demotion is timer-driven: a
// connected or paired device silent past the offline timeout is demoted on
// the next inactivity sweep. Devices mid-handshake are exempt.
//
// Transitions are pure functions (NextStatus, ShouldDemote); the dispatcher
// owns applying them and publishing the resulting edges.
//
// # Registry
//
// The Registry is the single authoritative mapping of device ID to Device.
// All reads return deep copies. Persistence is a snapshot concern only:
// Registry.LoadFrom at startup and Registry.SaveTo at shutdown against a
// Repository (SQLite implementation included).
package device
