// internal/config/normalize.go
package config

import "encoding/hex"

// Defaults applied by Normalize.
const (
	// DefaultPort is the conventional Modbus TCP port.
	DefaultPort = 502

	DefaultIntervalS = 2
	DefaultTimeoutS  = 3

	DefaultLine    = "1"
	DefaultLogDir  = "logs"
	DefaultListen  = ":8080"
	DefaultMetrics = ":9090"

	// DefaultCommand reads 16 input registers starting at register 2:
	// MBAP TID=0001 PID=0000 LEN=0006 UID=01, PDU FC=04 addr=0x0002 qty=0x0010.
	DefaultCommand = "000100000006010400020010"
)

// Normalize applies post-validation defaults and decodes the command frame.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	l := &cfg.Logger

	if l.Line == "" {
		l.Line = DefaultLine
	}

	if l.Device.Port == 0 {
		l.Device.Port = DefaultPort
	}
	if l.Device.TimeoutS == 0 {
		l.Device.TimeoutS = DefaultTimeoutS
	}
	if l.Device.Command == "" {
		l.Device.Command = DefaultCommand
	}

	// Hex already validated; decode cannot fail here.
	l.Device.commandBytes, _ = hex.DecodeString(l.Device.Command)

	if l.Poll.IntervalS == 0 {
		l.Poll.IntervalS = DefaultIntervalS
	}

	if l.Log.Dir == "" {
		l.Log.Dir = DefaultLogDir
	}
	if l.Log.Level == "" {
		l.Log.Level = "info"
	}
	if l.Log.Format == "" {
		l.Log.Format = "text"
	}

	if l.HTTP.Listen == "" {
		l.HTTP.Listen = DefaultListen
	}
	if l.Metrics.Listen == "" {
		l.Metrics.Listen = DefaultMetrics
	}
}
