package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSignal records a decoded signal and its translation outcome.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - protocol, device, command: The decoded signal tuple
//   - source: The decoder the signal arrived from (MQTT topic suffix or "api")
//   - emissions: How many keymap entries fired for this signal
func (c *Client) WriteSignal(protocol, device, command int32, source string, emissions int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"signals",
		map[string]string{
			"source": source,
		},
		map[string]interface{}{
			"protocol":  int64(protocol),
			"device":    int64(device),
			"command":   int64(command),
			"emissions": int64(emissions),
			"matched":   emissions > 0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEmission records a single key event emitted on a virtual input device.
//
// Parameters:
//   - remote: The remote whose endpoint emitted the event
//   - keymap: The keymap entry that matched
//   - keycode: The emitted keycode
func (c *Client) WriteEmission(remote, keymap string, keycode int32) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"emissions",
		map[string]string{
			"remote": remote,
			"keymap": keymap,
		},
		map[string]interface{}{
			"keycode": int64(keycode),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteReceiverStats records receiver throughput counters.
//
// Used by the periodic health reporter to track message volume and
// parse failures over time.
func (c *Client) WriteReceiverStats(received, translated, malformed uint64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"receiver",
		nil,
		map[string]interface{}{
			"received":   int64(received),   // #nosec G115 -- counter fits int64
			"translated": int64(translated), // #nosec G115 -- counter fits int64
			"malformed":  int64(malformed),  // #nosec G115 -- counter fits int64
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
