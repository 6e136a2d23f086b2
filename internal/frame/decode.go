// internal/frame/decode.go
package frame

import (
	"encoding/binary"

	"github.com/tamzrod/flowmeter-logger/internal/fault"
)

// Response frame geometry. The meter answers a fixed read-input-registers
// request, so the layout never varies.
//
// ADU:
//   MBAP TID(2) PID(2) LEN(2) UID(1) + PDU FC(1) ByteCount(1) + registers
//
// Register payload (big-endian, unsigned):
//   0-3   instantaneous flow  x0.01
//   4-7   accumulated flow    x1
//   8-9   temperature 1       x0.1
//   10-11 temperature 2       x0.1
const (
	HeaderLen   = 9
	PayloadLen  = 12
	MinFrameLen = HeaderLen + PayloadLen

	scaleFlow = 0.01
	scaleTemp = 0.1
)

// Decoder turns raw response frames into Samples.
// Header validation is opt-in: the meter's documentation does not say
// whether the envelope bytes are meaningful, so by default only length is
// checked.
type Decoder struct {
	// StrictHeader rejects frames whose MBAP protocol id is non-zero or
	// whose function code byte does not match Function.
	StrictHeader bool

	// Function is the expected function code byte when StrictHeader is set.
	Function uint8
}

// Decode validates a full response frame and decodes the register payload.
// Decoding is pure; the timestamp is not part of the wire frame and is
// assigned by the caller at the moment of successful decode.
func (d *Decoder) Decode(raw []byte) (Sample, error) {
	if len(raw) < MinFrameLen {
		return Sample{}, fault.Errorf(fault.KindMalformed, "frame decode",
			"short response: got %d bytes, need %d", len(raw), MinFrameLen)
	}

	if d != nil && d.StrictHeader {
		if raw[2] != 0 || raw[3] != 0 {
			return Sample{}, fault.Errorf(fault.KindMalformed, "frame decode",
				"protocol id mismatch: got 0x%02x%02x want 0x0000", raw[2], raw[3])
		}
		if raw[7] != d.Function {
			return Sample{}, fault.Errorf(fault.KindMalformed, "frame decode",
				"function mismatch: got %d want %d", raw[7], d.Function)
		}
	}

	return DecodePayload(raw[HeaderLen:])
}

// DecodePayload decodes a bare register payload, as returned by a standard
// Modbus client that already stripped the envelope.
func DecodePayload(p []byte) (Sample, error) {
	if len(p) < PayloadLen {
		return Sample{}, fault.Errorf(fault.KindMalformed, "frame decode",
			"short register payload: got %d bytes, need %d", len(p), PayloadLen)
	}

	return Sample{
		InstantFlow: float64(binary.BigEndian.Uint32(p[0:4])) * scaleFlow,
		AccumFlow:   binary.BigEndian.Uint32(p[4:8]),
		Temp1:       float64(binary.BigEndian.Uint16(p[8:10])) * scaleTemp,
		Temp2:       float64(binary.BigEndian.Uint16(p[10:12])) * scaleTemp,
	}, nil
}
