package teltonika

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/mhadysydney/fridge-controll-app/internal/logger"
	"github.com/mhadysydney/fridge-controll-app/internal/protocol/teltonika"
	"github.com/mhadysydney/fridge-controll-app/pkg/dout1"
	"github.com/mhadysydney/fridge-controll-app/pkg/metrics"
	"github.com/mhadysydney/fridge-controll-app/pkg/store"
	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// Session handles one device connection: handshake, command drain, one
// uplink batch, acknowledgment. The session owns the socket exclusively and
// all reads and writes are strictly sequential.
type Session struct {
	conn       net.Conn
	config     Config
	store      store.Store
	controller *dout1.Controller
	metrics    *metrics.Metrics

	imei string
	log  *slog.Logger
}

// Serve runs the session to completion. The connection is always closed on
// return.
func (s *Session) Serve(ctx context.Context) {
	start := time.Now()
	defer func() {
		_ = s.conn.Close()
		if s.metrics != nil {
			s.metrics.ActiveConnections.Dec()
			s.metrics.SessionDuration.Observe(time.Since(start).Seconds())
		}
	}()
	if s.metrics != nil {
		s.metrics.ActiveConnections.Inc()
	}

	s.log = logger.With(logger.KeyClient, s.conn.RemoteAddr().String())

	if !s.handshake() {
		return
	}
	s.log = logger.With(logger.KeyClient, s.conn.RemoteAddr().String(), logger.KeyIMEI, s.imei)

	s.drainCommands(ctx)
	s.ingest(ctx)
}

// handshake reads and validates the IMEI message, replying with the accept
// or reject byte.
func (s *Session) handshake() bool {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
		return false
	}

	imei, err := teltonika.ReadIMEI(s.conn)
	if err != nil {
		if errors.Is(err, teltonika.ErrInvalidIMEI) {
			s.log.Warn("Rejecting device", "error", err)
			_, _ = s.conn.Write([]byte{teltonika.RejectIMEI})
			s.countConnection("rejected")
		} else {
			s.log.Debug("Handshake failed", "error", err)
		}
		return false
	}

	if _, err := s.conn.Write([]byte{teltonika.AcceptIMEI}); err != nil {
		s.log.Debug("Failed to send handshake reply", "error", err)
		return false
	}

	s.imei = imei
	s.countConnection("accepted")
	return true
}

// drainCommands sends every pending command for the device and records the
// outcome. A failed command never aborts the session; the device still gets
// its remaining commands and the uplink proceeds.
func (s *Session) drainCommands(ctx context.Context) {
	commands, err := s.store.ListPendingCommands(ctx, s.imei)
	if err != nil {
		s.log.Error("Failed to list pending commands", "error", err)
		return
	}

	for _, cmd := range commands {
		if err := s.store.MarkCommand(ctx, cmd.ID, models.CommandSent); err != nil {
			s.log.Error("Failed to mark command sent", "id", cmd.ID, "error", err)
			continue
		}

		status := models.CommandCompleted
		if err := s.sendCommand(cmd.Command); err != nil {
			s.log.Warn("Command failed", "id", cmd.ID, logger.KeyCommand, cmd.Command, "error", err)
			status = models.CommandFailed
		} else {
			s.log.Info("Command completed", "id", cmd.ID, logger.KeyCommand, cmd.Command)
		}
		s.countCommand(status)

		if err := s.store.MarkCommand(ctx, cmd.ID, status); err != nil {
			s.log.Error("Failed to mark command", "id", cmd.ID, "error", err)
		}
	}
}

// sendCommand issues one Codec 12 command and waits for the device to
// confirm it. Returns nil only for a well-formed response containing the
// success marker.
func (s *Session) sendCommand(command string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.ResponseTimeout)); err != nil {
		return err
	}
	if _, err := s.conn.Write(teltonika.BuildCommandRequest(command)); err != nil {
		return fmt.Errorf("writing request: %w", err)
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(s.config.ResponseTimeout)); err != nil {
		return err
	}
	data, err := teltonika.ReadFrame(s.conn)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	body, err := teltonika.ParseCommandResponse(data)
	if err != nil {
		return err
	}
	if !teltonika.IsOK(body) {
		return fmt.Errorf("device refused command: %q", body)
	}
	return nil
}

// ingest reads one Codec 8E uplink, persists its records, feeds the DOUT1
// controller, and acknowledges the count of persisted records. Structural
// failures acknowledge zero records.
func (s *Session) ingest(ctx context.Context) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
		return
	}

	data, err := teltonika.ReadFrame(s.conn)
	if err != nil {
		s.countFrameError(err)
		s.log.Warn("Uplink frame rejected", "error", err)
		s.ack(0)
		return
	}

	records, err := teltonika.DecodeCodec8E(data, time.Now)
	if err != nil {
		s.countFrameError(err)
		s.log.Warn("Uplink decode failed", "error", err, logger.KeyFrame, hex.EncodeToString(data))
		s.ack(0)
		return
	}

	persisted := 0
	for _, rec := range records {
		if rec.Substituted {
			s.log.Warn("Device timestamp out of range, substituted wall clock",
				"timestamp", models.FormatTime(rec.Timestamp))
		}
		if !s.persistRecord(ctx, rec) {
			continue
		}
		persisted++
		s.observeDOUT1(ctx, rec)
	}

	s.log.Info("Uplink ingested", logger.KeyRecords, persisted, "received", len(records))
	s.ack(uint32(persisted))
}

// persistRecord writes one record's GPS row and IO rows. The record counts
// toward the acknowledgment if its GPS row was written; IO failures are
// logged and skipped.
func (s *Session) persistRecord(ctx context.Context, rec teltonika.Record) bool {
	ts := models.FormatTime(rec.Timestamp)

	err := s.store.InsertGPS(ctx, &models.GPSRecord{
		IMEI:       s.imei,
		Timestamp:  ts,
		Latitude:   rec.Latitude,
		Longitude:  rec.Longitude,
		Altitude:   rec.Altitude,
		Angle:      rec.Angle,
		Satellites: rec.Satellites,
		Speed:      rec.Speed,
	})
	if err != nil {
		s.log.Error("Failed to persist GPS record", "error", err)
		return false
	}

	for _, io := range rec.IOs {
		err := s.store.InsertIO(ctx, &models.IORecord{
			IMEI:      s.imei,
			Timestamp: ts,
			IOID:      io.ID,
			IOValue:   io.Value,
		})
		if err != nil {
			s.log.Error("Failed to persist IO element", logger.KeyIOID, io.ID, "error", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.IOElementsTotal.Inc()
		}
	}

	if s.metrics != nil {
		s.metrics.RecordsTotal.Inc()
	}
	return true
}

// observeDOUT1 feeds the record's DOUT1 reading to the controller. IO
// elements arrive sorted by width; the last occurrence wins if the id is
// duplicated.
func (s *Session) observeDOUT1(ctx context.Context, rec teltonika.Record) {
	var value uint64
	seen := false
	for _, io := range rec.IOs {
		if io.ID == s.controller.IOID() {
			value = io.Value
			seen = true
		}
	}
	if !seen {
		return
	}

	sender := dout1.SenderFunc(func(_ context.Context, command string) error {
		return s.sendCommand(command)
	})
	if err := s.controller.Observe(ctx, s.imei, rec.Timestamp, value, sender); err != nil {
		s.log.Error("Output automation failed", "error", err)
	}
}

func (s *Session) ack(count uint32) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
		return
	}
	if _, err := s.conn.Write(teltonika.BuildAck(count)); err != nil {
		s.log.Debug("Failed to send acknowledgment", "error", err)
	}
}

func (s *Session) countConnection(result string) {
	if s.metrics != nil {
		s.metrics.ConnectionsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Session) countCommand(status models.CommandStatus) {
	if s.metrics != nil {
		s.metrics.CommandsTotal.WithLabelValues(string(status)).Inc()
	}
}

func (s *Session) countFrameError(err error) {
	if s.metrics == nil {
		return
	}
	kind := "other"
	var nerr net.Error
	switch {
	case errors.As(err, &nerr) && nerr.Timeout():
		kind = "timeout"
	case errors.Is(err, teltonika.ErrBadPreamble):
		kind = "bad_preamble"
	case errors.Is(err, teltonika.ErrBadCRC):
		kind = "bad_crc"
	case errors.Is(err, teltonika.ErrUnsupportedCodec):
		kind = "unsupported_codec"
	case errors.Is(err, teltonika.ErrCountMismatch):
		kind = "count_mismatch"
	case errors.Is(err, teltonika.ErrTruncated):
		kind = "truncated"
	}
	s.metrics.FrameErrorsTotal.WithLabelValues(kind).Inc()
}
