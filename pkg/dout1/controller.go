// Package dout1 implements the digital-output automation policy.
//
// Each device carries a DOUT1 line wired to the defrost relay. The policy
// watches the DOUT1 IO element in incoming telemetry: after twelve
// uninterrupted hours of zeros it switches the output on for a fixed
// duration, then switches it off once the duration expires. State lives in
// the repository so the cycle survives restarts and device reconnects.
package dout1

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mhadysydney/fridge-controll-app/internal/logger"
	"github.com/mhadysydney/fridge-controll-app/pkg/metrics"
	"github.com/mhadysydney/fridge-controll-app/pkg/store"
	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// Device commands understood by FMB firmware.
const (
	CommandActivate   = "setdigout 1"
	CommandDeactivate = "setdigout 0"
)

// DefaultIOID is the DOUT1 IO element id on the FMB device family.
const DefaultIOID = 179

// Sender issues a command on the device's open session and returns nil only
// when the device confirmed it.
type Sender interface {
	Send(ctx context.Context, command string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, command string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, command string) error {
	return f(ctx, command)
}

// Config contains the automation policy parameters.
type Config struct {
	// IOID is the IO element id carrying the DOUT1 reading.
	IOID uint16 `mapstructure:"io_id" yaml:"io_id"`

	// ZeroTimeout is how long the reading must stay zero before the output
	// is switched on.
	ZeroTimeout time.Duration `mapstructure:"zero_timeout" yaml:"zero_timeout"`

	// ActivationDuration is how long the output stays on once activated.
	ActivationDuration time.Duration `mapstructure:"activation_duration" yaml:"activation_duration"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.IOID == 0 {
		c.IOID = DefaultIOID
	}
	if c.ZeroTimeout == 0 {
		c.ZeroTimeout = 12 * time.Hour
	}
	if c.ActivationDuration == 0 {
		c.ActivationDuration = 4000 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ZeroTimeout <= 0 {
		return fmt.Errorf("zero_timeout must be positive")
	}
	if c.ActivationDuration <= 0 {
		return fmt.Errorf("activation_duration must be positive")
	}
	return nil
}

// Controller applies the automation policy one observation at a time.
//
// Observations for the same IMEI are serialized internally; the device
// keeps a single connection open at a time, but the lock keeps the
// read-modify-write on dout1_state safe regardless.
type Controller struct {
	config  Config
	store   store.Store
	metrics *metrics.Metrics

	locks sync.Map // imei -> *sync.Mutex
}

// New creates a Controller. metrics may be nil.
func New(config Config, st store.Store, m *metrics.Metrics) *Controller {
	config.ApplyDefaults()
	return &Controller{config: config, store: st, metrics: m}
}

// IOID returns the IO element id the controller watches.
func (c *Controller) IOID() uint16 {
	return c.config.IOID
}

// Observe feeds one (timestamp, value) DOUT1 reading for imei through the
// policy. Commands are issued via send on the device's open session; a
// failed command leaves the persisted state untouched so the transition is
// retried on the next observation.
func (c *Controller) Observe(ctx context.Context, imei string, t time.Time, value uint64, send Sender) error {
	mu, _ := c.locks.LoadOrStore(imei, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	t = t.UTC().Truncate(time.Second)

	isNew := false
	state, err := c.store.GetDOUT1State(ctx, imei)
	if err == models.ErrStateNotFound {
		state = &models.DOUT1State{IMEI: imei}
		isNew = true
	} else if err != nil {
		return fmt.Errorf("loading dout1 state: %w", err)
	}

	changed, err := c.apply(ctx, state, t, value, send)
	if err != nil {
		return err
	}
	if !changed && !isNew {
		return nil
	}

	if err := c.store.UpsertDOUT1State(ctx, state); err != nil {
		return fmt.Errorf("persisting dout1 state: %w", err)
	}
	return nil
}

// apply mutates state in place and reports whether it changed. Transition
// order matters: expiry first, then zero-tracking, then nonzero reset.
func (c *Controller) apply(ctx context.Context, state *models.DOUT1State, t time.Time, value uint64, send Sender) (bool, error) {
	changed := false

	// Zero-tracking below tests the activity flag as it was when the
	// observation arrived. An expiry in this same observation must not chain
	// into an immediate re-activation; the device gets at least one more
	// observation in between.
	wasActive := state.Active

	if state.Active && state.DeactivateTime != nil {
		deactivateAt, err := models.ParseTime(*state.DeactivateTime)
		if err != nil {
			return false, fmt.Errorf("corrupt deactivate_time %q: %w", *state.DeactivateTime, err)
		}
		if !t.Before(deactivateAt) {
			if err := send.Send(ctx, CommandDeactivate); err != nil {
				logger.Warn("Deactivation command failed, will retry on next observation",
					logger.KeyIMEI, state.IMEI, "error", err)
			} else {
				state.Active = false
				state.DeactivateTime = nil
				changed = true
				c.countTransition("off")
				logger.Info("Output deactivated", logger.KeyIMEI, state.IMEI)
			}
		}
	}

	if value == 0 {
		switch {
		case state.LastZeroTime == nil:
			ts := models.FormatTime(t)
			state.LastZeroTime = &ts
			changed = true

		case !wasActive:
			lastZero, err := models.ParseTime(*state.LastZeroTime)
			if err != nil {
				return false, fmt.Errorf("corrupt last_dout1_zero_time %q: %w", *state.LastZeroTime, err)
			}
			if t.Sub(lastZero) > c.config.ZeroTimeout {
				if err := send.Send(ctx, CommandActivate); err != nil {
					logger.Warn("Activation command failed, will retry on next observation",
						logger.KeyIMEI, state.IMEI, "error", err)
				} else {
					deactivateAt := models.FormatTime(t.Add(c.config.ActivationDuration))
					state.Active = true
					state.DeactivateTime = &deactivateAt
					changed = true
					c.countTransition("on")
					logger.Info("Output activated",
						logger.KeyIMEI, state.IMEI, "deactivate_at", deactivateAt)
				}
			}
		}
	} else if state.LastZeroTime != nil {
		state.LastZeroTime = nil
		changed = true
	}

	return changed, nil
}

func (c *Controller) countTransition(direction string) {
	if c.metrics != nil {
		c.metrics.DOUT1TransitionsTotal.WithLabelValues(direction).Inc()
	}
}
