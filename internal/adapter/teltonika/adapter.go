// Package teltonika implements the device-facing TCP listener.
//
// Each accepted connection runs one session: IMEI handshake, pending command
// drain, one Codec 8E uplink, acknowledgment, close. Devices reconnect
// between batches.
package teltonika

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mhadysydney/fridge-controll-app/internal/adapter"
	"github.com/mhadysydney/fridge-controll-app/pkg/dout1"
	"github.com/mhadysydney/fridge-controll-app/pkg/metrics"
	"github.com/mhadysydney/fridge-controll-app/pkg/store"
)

// Config holds the Teltonika listener configuration.
type Config struct {
	adapter.BaseConfig `mapstructure:",squash" yaml:",inline"`

	// ReadTimeout bounds every socket read outside the command drain.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// ResponseTimeout bounds the wait for a Codec 12 command response.
	ResponseTimeout time.Duration `mapstructure:"response_timeout" yaml:"response_timeout"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 12345
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = 5 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("response_timeout must be positive")
	}
	return nil
}

// Adapter is the Teltonika protocol adapter.
type Adapter struct {
	*adapter.BaseAdapter

	config     Config
	store      store.Store
	controller *dout1.Controller
	metrics    *metrics.Metrics
}

// New creates a Teltonika adapter. m may be nil.
func New(config Config, st store.Store, controller *dout1.Controller, m *metrics.Metrics) (*Adapter, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid teltonika adapter configuration: %w", err)
	}

	return &Adapter{
		BaseAdapter: adapter.NewBaseAdapter(config.BaseConfig, "Teltonika"),
		config:      config,
		store:       st,
		controller:  controller,
		metrics:     m,
	}, nil
}

// Serve accepts device connections until ctx is cancelled or Stop is called.
func (a *Adapter) Serve(ctx context.Context) error {
	return a.BaseAdapter.Serve(ctx, a)
}

// NewConnection creates a session handler for an accepted connection.
func (a *Adapter) NewConnection(conn net.Conn) adapter.ConnectionHandler {
	return &Session{
		conn:       conn,
		config:     a.config,
		store:      a.store,
		controller: a.controller,
		metrics:    a.metrics,
	}
}
