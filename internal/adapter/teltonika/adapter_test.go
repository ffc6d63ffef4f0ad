package teltonika

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhadysydney/fridge-controll-app/internal/protocol/teltonika"
	"github.com/mhadysydney/fridge-controll-app/pkg/dout1"
	"github.com/mhadysydney/fridge-controll-app/pkg/store"
	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

func startAdapter(t *testing.T) (*Adapter, *store.GORMStore, string) {
	t.Helper()

	st := createTestStore(t)
	controller := dout1.New(dout1.Config{}, st, nil)

	a, err := New(Config{}, st, controller, nil)
	require.NoError(t, err)
	// Bind an ephemeral port; the configured default would collide across
	// test runs.
	a.BaseAdapter.Config.BindAddress = "127.0.0.1"
	a.BaseAdapter.Config.Port = 0

	serveDone := make(chan error, 1)
	go func() { serveDone <- a.Serve(context.Background()) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx)
		select {
		case <-serveDone:
		case <-time.After(5 * time.Second):
			t.Error("adapter did not stop")
		}
	})

	return a, st, a.GetListenerAddr()
}

func TestAdapterServesDevices(t *testing.T) {
	_, st, addr := startAdapter(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	dev := &device{t: t, conn: conn}
	require.Equal(t, byte(teltonika.AcceptIMEI), dev.sendIMEI(testIMEI))

	dev.sendUplink([]teltonika.Record{{
		Timestamp: avlTime("2024-01-01 00:00:00"),
		Latitude:  37.7749,
		Longitude: -122.4194,
	}})
	assert.Equal(t, uint32(1), dev.readAck())

	// The gateway closes after the ack; one uplink batch per connection.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var b [1]byte
	_, err = io.ReadFull(conn, b[:])
	assert.ErrorIs(t, err, io.EOF)

	var count int64
	require.NoError(t, st.DB().Model(&models.GPSRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAdapterDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 12345, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.ResponseTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestAdapterGracefulStop(t *testing.T) {
	a, _, addr := startAdapter(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	dev := &device{t: t, conn: conn}
	require.Equal(t, byte(teltonika.AcceptIMEI), dev.sendIMEI(testIMEI))
	require.Equal(t, int32(1), a.GetActiveConnections())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))

	assert.Equal(t, int32(0), a.GetActiveConnections())

	// New connections are refused after shutdown.
	_, err = net.Dial("tcp", addr)
	assert.Error(t, err)
}

func TestAdapterPersistsAcrossConnections(t *testing.T) {
	_, st, addr := startAdapter(t)

	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)

		dev := &device{t: t, conn: conn}
		require.Equal(t, byte(teltonika.AcceptIMEI), dev.sendIMEI(testIMEI))
		dev.sendUplink([]teltonika.Record{{Timestamp: avlTime("2024-01-01 00:00:00")}})
		require.Equal(t, uint32(1), dev.readAck())
		_ = conn.Close()
	}

	var count int64
	require.NoError(t, st.DB().Model(&models.GPSRecord{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
