// internal/frame/decode_test.go
package frame

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/tamzrod/flowmeter-logger/internal/fault"
)

// meterFrame builds a full response frame from a payload hex string.
func meterFrame(t *testing.T, payloadHex string) []byte {
	t.Helper()

	// MBAP TID=0001 PID=0000 LEN=000f UID=01, PDU FC=04 ByteCount=0c
	header, err := hex.DecodeString("00010000000f01040c")
	if err != nil {
		t.Fatalf("header fixture: %v", err)
	}

	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		t.Fatalf("payload fixture: %v", err)
	}

	return append(header, payload...)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestDecode_KnownSample(t *testing.T) {
	raw := meterFrame(t, "0000007B00001C9000F000FA")

	d := &Decoder{}
	s, err := d.Decode(raw)
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}

	if !almostEqual(s.InstantFlow, 1.23) {
		t.Fatalf("instantaneous flow: got %v want 1.23", s.InstantFlow)
	}
	if s.AccumFlow != 7312 {
		t.Fatalf("accumulated flow: got %d want 7312", s.AccumFlow)
	}
	if !almostEqual(s.Temp1, 24.0) {
		t.Fatalf("temperature 1: got %v want 24.0", s.Temp1)
	}
	if !almostEqual(s.Temp2, 25.0) {
		t.Fatalf("temperature 2: got %v want 25.0", s.Temp2)
	}
	if !s.Timestamp.IsZero() {
		t.Fatalf("decode must not assign a timestamp")
	}
}

func TestDecode_Deterministic(t *testing.T) {
	raw := meterFrame(t, "0000007B00001C9000F000FA")

	d := &Decoder{}
	a, err := d.Decode(raw)
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	b, err := d.Decode(raw)
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}

	if a != b {
		t.Fatalf("identical bytes decoded differently: %+v vs %+v", a, b)
	}
}

func TestDecode_ShortFrame(t *testing.T) {
	d := &Decoder{}

	for _, n := range []int{0, 1, 18, MinFrameLen - 1} {
		_, err := d.Decode(make([]byte, n))
		if err == nil {
			t.Fatalf("length %d: expected error, got nil", n)
		}
		if fault.KindOf(err) != fault.KindMalformed {
			t.Fatalf("length %d: expected malformed, got %v", n, fault.KindOf(err))
		}
	}
}

func TestDecode_ExactMinLength(t *testing.T) {
	d := &Decoder{}
	if _, err := d.Decode(make([]byte, MinFrameLen)); err != nil {
		t.Fatalf("min-length frame rejected: %v", err)
	}
}

func TestDecode_StrictHeader(t *testing.T) {
	raw := meterFrame(t, "0000007B00001C9000F000FA")

	d := &Decoder{StrictHeader: true, Function: 0x04}
	if _, err := d.Decode(raw); err != nil {
		t.Fatalf("matching header rejected: %v", err)
	}

	// non-zero protocol id
	bad := append([]byte(nil), raw...)
	bad[2] = 0xFF
	if _, err := d.Decode(bad); err == nil {
		t.Fatalf("expected protocol id mismatch")
	}

	// wrong function code
	bad = append([]byte(nil), raw...)
	bad[7] = 0x03
	if _, err := d.Decode(bad); err == nil {
		t.Fatalf("expected function mismatch")
	}

	// lax decoder ignores both
	lax := &Decoder{}
	bad[2] = 0xFF
	if _, err := lax.Decode(bad); err != nil {
		t.Fatalf("lax decoder rejected header bytes: %v", err)
	}
}

func TestDecodePayload_ScalingRoundTrip(t *testing.T) {
	cases := []struct {
		payload string
		flow    float64
		accum   uint32
		t1, t2  float64
	}{
		{"000000000000000000000000", 0, 0, 0, 0},
		{"0000006400000001000A0014", 1.0, 1, 1.0, 2.0},
		{"FFFFFFFFFFFFFFFFFFFFFFFF", 42949672.95, 4294967295, 6553.5, 6553.5},
	}

	for _, tc := range cases {
		p, err := hex.DecodeString(tc.payload)
		if err != nil {
			t.Fatalf("fixture: %v", err)
		}

		s, err := DecodePayload(p)
		if err != nil {
			t.Fatalf("payload %s: %v", tc.payload, err)
		}
		if !almostEqual(s.InstantFlow, tc.flow) || s.AccumFlow != tc.accum ||
			!almostEqual(s.Temp1, tc.t1) || !almostEqual(s.Temp2, tc.t2) {
			t.Fatalf("payload %s: got %+v", tc.payload, s)
		}
	}
}

func TestDecodePayload_Short(t *testing.T) {
	if _, err := DecodePayload(make([]byte, PayloadLen-1)); err == nil {
		t.Fatalf("expected error for short payload")
	}
}
