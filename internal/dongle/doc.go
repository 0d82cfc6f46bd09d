// Package dongle manages the radio bridges devices talk through: the
// identification handshake that sorts BLE dongles from Zigbee
// coordinators, and the runtime set tracking which dongles may carry
// traffic.
//
// Identification writes a probe to a candidate endpoint and matches the
// answer against known firmware signatures, retrying with exponential
// backoff. Endpoints that answer with an unfamiliar signature are
// recorded as unknown and left alone rather than probed forever.
//
// Enablement is layered: each dongle has its own flag and each protocol
// has a master toggle. Disabling a protocol silences every dongle that
// speaks it without losing the per-dongle flags.
package dongle
