package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/manaam216/gemns-integration/internal/device"
)

// WriteDeviceEvent records one decoded telemetry frame.
//
// Tags carry the device identity and classification; fields carry the
// decoded payload values. Attribute values that are not numeric, boolean
// or string are dropped rather than coerced.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteDeviceEvent(deviceID string, category device.Category, status device.Status, attributes map[string]any, at time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		switch v.(type) {
		case bool, string, int, int64, uint32, float64:
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{
			"device_id": deviceID,
			"category":  string(category),
			"status":    string(status),
		},
		fields,
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceMetric writes a single named measurement for a device, for
// values derived outside the frame payload such as event counter deltas.
func (c *Client) WriteDeviceMetric(deviceID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_metrics",
		map[string]string{
			"device_id":   deviceID,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteFleetStats records a registry snapshot: totals per status. Called
// periodically so dashboards can graph fleet health over time.
func (c *Client) WriteFleetStats(stats device.Stats) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"total": stats.TotalDevices,
	}
	for status, count := range stats.ByStatus {
		fields[string(status)] = count
	}

	point := write.NewPoint("fleet", nil, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
