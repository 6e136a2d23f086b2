// internal/frame/types.go
package frame

import "time"

// Sample is one decoded meter reading. It is only ever constructed from a
// response that passed length validation; there is no partial form.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	InstantFlow float64   `json:"instantaneous_flow"`
	AccumFlow   uint32    `json:"accumulated_flow"`
	Temp1       float64   `json:"temperature_1"`
	Temp2       float64   `json:"temperature_2"`
}
