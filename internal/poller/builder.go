// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/flowmeter-logger/internal/config"
	"github.com/tamzrod/flowmeter-logger/internal/frame"
	"github.com/tamzrod/flowmeter-logger/internal/store"
	"github.com/tamzrod/flowmeter-logger/internal/transport"
)

// Build wires transport, decoder and controller from a validated,
// normalized config. The transport client is returned as well so the
// owner can repoint the device endpoint between cycles.
func Build(l cfg.LoggerConfig, st *store.Store, notify func(CycleResult)) (*Controller, *transport.Client, error) {
	client, err := transport.New(transport.Config{
		Address: l.Device.Address,
		Port:    l.Device.Port,
		Timeout: time.Duration(l.Device.TimeoutS) * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	command := l.Device.CommandBytes()

	dec := &frame.Decoder{
		StrictHeader: l.Device.StrictHeader,
	}
	// The function code byte of the fixed request, used for strict
	// envelope checks. MBAP header is 7 bytes; the PDU starts at 7.
	if len(command) > 7 {
		dec.Function = command[7]
	}

	ctrl, err := New(
		Config{
			Command:  command,
			Interval: time.Duration(l.Poll.IntervalS) * time.Second,
			Notify:   notify,
		},
		client,
		dec.Decode,
		st,
	)
	if err != nil {
		return nil, nil, err
	}

	return ctrl, client, nil
}
