// internal/config/validate.go
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/tamzrod/flowmeter-logger/internal/fault"
)

// Polling interval bounds, in seconds.
const (
	MinIntervalS = 1
	MaxIntervalS = 60
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// All failures are config faults and reject a start before any cycle runs.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fault.Errorf(fault.KindConfig, "config", "nil config")
	}

	l := &cfg.Logger

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if l.Device.Address == "" {
		return fault.Errorf(fault.KindConfig, "config", "device.address required")
	}

	if l.Device.Port != 0 && (l.Device.Port < 1 || l.Device.Port > 65535) {
		return fault.Errorf(fault.KindConfig, "config",
			"device.port %d out of range 1-65535", l.Device.Port)
	}

	if l.Device.TimeoutS < 0 {
		return fault.Errorf(fault.KindConfig, "config",
			"device.timeout_s must be >= 0, got %d", l.Device.TimeoutS)
	}

	if l.Device.Command != "" {
		raw, err := hex.DecodeString(l.Device.Command)
		if err != nil {
			return fault.New(fault.KindConfig, "config",
				fmt.Errorf("device.command is not valid hex: %w", err))
		}
		if len(raw) == 0 {
			return fault.Errorf(fault.KindConfig, "config", "device.command is empty")
		}
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	if l.Poll.IntervalS != 0 &&
		(l.Poll.IntervalS < MinIntervalS || l.Poll.IntervalS > MaxIntervalS) {
		return fault.Errorf(fault.KindConfig, "config",
			"poll.interval_s %d out of range %d-%d",
			l.Poll.IntervalS, MinIntervalS, MaxIntervalS)
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch l.Log.Format {
	case "", "text", "json":
	default:
		return fault.Errorf(fault.KindConfig, "config",
			"log.format must be text or json, got %q", l.Log.Format)
	}

	return nil
}
