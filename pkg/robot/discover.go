package robot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.bug.st/serial"
)

// ErrNoRig is returned by a discovery attempt that found no port with both servos.
var ErrNoRig = errors.New("no rig found")

// ConnectRig opens the rig described by cfg, retrying forever (with
// exponential backoff) until the servos answer or ctx is cancelled. When
// cfg.Port is empty every serial port is tried. notify, if not nil, is
// called after each failed attempt.
func ConnectRig(ctx context.Context, cfg *Config, notify func(err error, next time.Duration)) (*Rig, error) {
	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(notify))
	}
	return backoff.Retry(ctx, func() (*Rig, error) {
		return openRig(ctx, cfg)
	}, opts...)
}

func openRig(ctx context.Context, cfg *Config) (*Rig, error) {
	if cfg.Port != "" {
		return NewRig(ctx, cfg.Port, cfg.Motors)
	}

	ports, err := CandidatePorts()
	if err != nil {
		return nil, err
	}
	for _, port := range ports {
		r, err := NewRig(ctx, port, cfg.Motors)
		if err == nil {
			return r, nil
		}
	}
	return nil, fmt.Errorf("tried %d port(s): %w", len(ports), ErrNoRig)
}

// CandidatePorts lists serial ports that may carry a servo bus.
func CandidatePorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}

	var out []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		out = append(out, port)
	}
	return out, nil
}
