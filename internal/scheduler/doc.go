// Package scheduler owns the periodic work: discovering and identifying
// dongles on their endpoints, sweeping the registry for devices that have
// stopped reporting, and keeping a stream listener running for every
// identified dongle so inbound frames reach the dispatcher. The discovery
// and sweep jobs tick independently and both honor context cancellation
// mid-pass, so shutdown never waits for a full discovery cycle.
package scheduler
