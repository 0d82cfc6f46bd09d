// Package influxdb provides time-series storage for device telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health monitoring. Decoded
// telemetry frames land in the device_events measurement; periodic fleet
// snapshots land in fleet.
//
// Writes never block the dispatcher: points are buffered and flushed in
// the background, and write failures surface through the SetOnError
// callback.
package influxdb
