// Package adapter provides shared TCP lifecycle management for protocol
// listeners.
package adapter

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mhadysydney/fridge-controll-app/internal/logger"
)

// ConnectionHandler represents a protocol-specific connection. Serve blocks
// until the session completes or the context is cancelled.
type ConnectionHandler interface {
	Serve(ctx context.Context)
}

// ConnectionFactory creates protocol-specific connection handlers for
// accepted TCP connections. Protocol adapters implement this interface and
// pass themselves to BaseAdapter.Serve.
type ConnectionFactory interface {
	NewConnection(conn net.Conn) ConnectionHandler
}

// BaseConfig holds configuration common to TCP listeners.
type BaseConfig struct {
	// BindAddress is the IP address to bind to.
	// Empty string or "0.0.0.0" binds to all interfaces.
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address"`

	// Port is the TCP port to listen on.
	Port int `mapstructure:"port" yaml:"port"`

	// MaxConnections limits the number of concurrent device connections.
	// 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections"`

	// ShutdownTimeout is the maximum duration to wait for active sessions
	// to complete during graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// BaseAdapter provides the shared TCP accept loop, connection tracking, and
// graceful shutdown for protocol adapters.
//
// Thread safety: all exported methods are safe for concurrent use. The
// shutdown mechanism uses sync.Once so Stop may be called multiple times.
type BaseAdapter struct {
	// Config holds the shared listener configuration.
	Config BaseConfig

	// protocolName is the human-readable protocol name for logging.
	protocolName string

	// listener accepts device connections; closed during shutdown.
	listener net.Listener

	// activeConns tracks running session goroutines for graceful shutdown.
	activeConns sync.WaitGroup

	// shutdownOnce ensures shutdown is only initiated once.
	shutdownOnce sync.Once

	// Shutdown is closed when shutdown is initiated.
	Shutdown chan struct{}

	// ConnCount tracks the current number of active sessions.
	ConnCount atomic.Int32

	// connSemaphore limits concurrency when MaxConnections > 0; nil otherwise.
	connSemaphore chan struct{}

	// ShutdownCtx is cancelled during shutdown to abort in-flight sessions.
	ShutdownCtx context.Context

	// CancelRequests cancels ShutdownCtx.
	CancelRequests context.CancelFunc

	// ActiveConnections maps remote address to net.Conn for forced closure.
	ActiveConnections sync.Map

	// ListenerReady is closed when the listener is accepting connections.
	// Used by tests to synchronize with server startup.
	ListenerReady chan struct{}

	// listenerMu protects access to the listener field.
	listenerMu sync.RWMutex
}

// NewBaseAdapter creates a BaseAdapter in a stopped state. Call Serve to
// start accepting connections.
func NewBaseAdapter(config BaseConfig, protocol string) *BaseAdapter {
	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	return &BaseAdapter{
		Config:         config,
		protocolName:   protocol,
		Shutdown:       make(chan struct{}),
		connSemaphore:  connSemaphore,
		ShutdownCtx:    shutdownCtx,
		CancelRequests: cancelRequests,
		ListenerReady:  make(chan struct{}),
	}
}

// Serve runs the TCP accept loop, delegating to factory for
// protocol-specific session creation. It returns nil on graceful shutdown.
func (b *BaseAdapter) Serve(ctx context.Context, factory ConnectionFactory) error {
	listenAddr := fmt.Sprintf("%s:%d", b.Config.BindAddress, b.Config.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to create %s listener on port %d: %w", b.protocolName, b.Config.Port, err)
	}

	b.listenerMu.Lock()
	b.listener = listener
	b.listenerMu.Unlock()
	close(b.ListenerReady)

	logger.Info(b.protocolName+" server listening", "port", b.Config.Port)

	go func() {
		<-ctx.Done()
		logger.Info(b.protocolName+" shutdown signal received", "error", ctx.Err())
		b.initiateShutdown()
	}()

	for {
		if b.connSemaphore != nil {
			select {
			case b.connSemaphore <- struct{}{}:
			case <-b.Shutdown:
				return b.gracefulShutdown()
			}
		}

		tcpConn, err := b.listener.Accept()
		if err != nil {
			if b.connSemaphore != nil {
				<-b.connSemaphore
			}
			select {
			case <-b.Shutdown:
				// Expected error during shutdown (listener was closed).
				return b.gracefulShutdown()
			default:
				logger.Debug("Error accepting "+b.protocolName+" connection", "error", err)
				continue
			}
		}

		// Sessions are short exchanges of small frames; Nagle only adds
		// latency here.
		if tcp, ok := tcpConn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", "error", err)
			}
		}

		b.activeConns.Add(1)
		b.ConnCount.Add(1)

		connAddr := tcpConn.RemoteAddr().String()
		b.ActiveConnections.Store(connAddr, tcpConn)

		logger.Debug(b.protocolName+" connection accepted",
			"address", tcpConn.RemoteAddr(), "active", b.ConnCount.Load())

		conn := factory.NewConnection(tcpConn)

		go func(addr string, tcp net.Conn) {
			defer func() {
				b.ActiveConnections.Delete(addr)
				b.activeConns.Done()
				b.ConnCount.Add(-1)
				if b.connSemaphore != nil {
					<-b.connSemaphore
				}
				logger.Debug(b.protocolName+" connection closed",
					"address", tcp.RemoteAddr(), "active", b.ConnCount.Load())
			}()

			conn.Serve(b.ShutdownCtx)
		}(connAddr, tcpConn)
	}
}

// initiateShutdown signals the accept loop to stop, closes the listener,
// interrupts blocking reads, and cancels in-flight session contexts.
// Safe to call multiple times.
func (b *BaseAdapter) initiateShutdown() {
	b.shutdownOnce.Do(func() {
		logger.Debug(b.protocolName + " shutdown initiated")

		close(b.Shutdown)

		b.listenerMu.Lock()
		if b.listener != nil {
			if err := b.listener.Close(); err != nil {
				logger.Debug("Error closing "+b.protocolName+" listener", "error", err)
			}
		}
		b.listenerMu.Unlock()

		b.interruptBlockingReads()
		b.CancelRequests()
	})
}

// interruptBlockingReads sets a short deadline on all active connections so
// sessions blocked in a read observe the shutdown promptly.
func (b *BaseAdapter) interruptBlockingReads() {
	deadline := time.Now().Add(100 * time.Millisecond)

	b.ActiveConnections.Range(func(key, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			if err := conn.SetReadDeadline(deadline); err != nil {
				logger.Debug("Error setting shutdown deadline on connection",
					"address", key, "error", err)
			}
		}
		return true
	})
}

// gracefulShutdown waits for active sessions to complete or the configured
// timeout, then force-closes whatever remains.
func (b *BaseAdapter) gracefulShutdown() error {
	activeCount := b.ConnCount.Load()
	logger.Info(b.protocolName+" graceful shutdown: waiting for active connections",
		"active", activeCount, "timeout", b.Config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		b.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(b.protocolName + " graceful shutdown complete: all connections closed")
		return nil

	case <-time.After(b.Config.ShutdownTimeout):
		remaining := b.ConnCount.Load()
		logger.Warn(b.protocolName+" shutdown timeout exceeded - forcing closure",
			"active", remaining, "timeout", b.Config.ShutdownTimeout)
		b.forceCloseConnections()
		return fmt.Errorf("%s shutdown timeout: %d connections force-closed", b.protocolName, remaining)
	}
}

// forceCloseConnections closes all tracked TCP connections.
func (b *BaseAdapter) forceCloseConnections() {
	b.ActiveConnections.Range(func(key, value any) bool {
		addr := key.(string)
		conn := value.(net.Conn)

		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing connection", "address", addr, "error", err)
		} else {
			logger.Debug("Force-closed connection", "address", addr)
		}
		return true
	})
}

// Stop initiates graceful shutdown and waits for active sessions up to the
// context deadline, or the configured ShutdownTimeout if ctx is nil.
func (b *BaseAdapter) Stop(ctx context.Context) error {
	b.initiateShutdown()

	if ctx == nil {
		return b.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		b.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(b.protocolName + " graceful shutdown complete: all connections closed")
		return nil

	case <-ctx.Done():
		remaining := b.ConnCount.Load()
		logger.Warn(b.protocolName+" shutdown context cancelled",
			"active", remaining, "error", ctx.Err())
		return ctx.Err()
	}
}

// GetActiveConnections returns the current number of active sessions.
func (b *BaseAdapter) GetActiveConnections() int32 {
	return b.ConnCount.Load()
}

// GetListenerAddr returns the address the server is listening on. It blocks
// until the listener is ready, making it safe for tests.
func (b *BaseAdapter) GetListenerAddr() string {
	<-b.ListenerReady

	b.listenerMu.RLock()
	defer b.listenerMu.RUnlock()

	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}
