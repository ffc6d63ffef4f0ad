package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhadysydney/fridge-controll-app/pkg/store"
	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

const testIMEI = "356307042441013"

func setupAPI(t *testing.T) (http.Handler, *store.GORMStore) {
	t.Helper()

	s, err := store.New(&store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return NewRouter(s), s
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := setupAPI(t)

	rec := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = doRequest(t, h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestDOUT1Status(t *testing.T) {
	h, s := setupAPI(t)
	ctx := context.Background()

	t.Run("UnknownIMEIReturns404", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/dout1_status/"+testIMEI, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("ReturnsState", func(t *testing.T) {
		deact := "2024-01-01 13:06:41"
		require.NoError(t, s.UpsertDOUT1State(ctx, &models.DOUT1State{
			IMEI:           testIMEI,
			Active:         true,
			DeactivateTime: &deact,
		}))

		rec := doRequest(t, h, http.MethodGet, "/dout1_status/"+testIMEI, "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, testIMEI, body["imei"])
		assert.Equal(t, true, body["dout1_active"])
		assert.Equal(t, deact, body["deactivate_time"])
	})

	t.Run("NullDeactivateTime", func(t *testing.T) {
		require.NoError(t, s.UpsertDOUT1State(ctx, &models.DOUT1State{IMEI: testIMEI}))

		rec := doRequest(t, h, http.MethodGet, "/dout1_status/"+testIMEI, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, decodeBody(t, rec)["deactivate_time"])
	})
}

func TestDOUT1Control(t *testing.T) {
	h, s := setupAPI(t)
	ctx := context.Background()

	t.Run("UnknownIMEIReturns404", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/dout1_control/999999999999999", `{"activate": true}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("QueuesActivation", func(t *testing.T) {
		require.NoError(t, s.InsertGPS(ctx, &models.GPSRecord{
			IMEI:      testIMEI,
			Timestamp: "2024-01-01 00:00:00",
		}))

		rec := doRequest(t, h, http.MethodPost, "/dout1_control/"+testIMEI, `{"activate": true}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "setdigout 1", body["command"])
		assert.Equal(t, "queued", body["status"])

		commands, err := s.ListPendingCommands(ctx, testIMEI)
		require.NoError(t, err)
		require.Len(t, commands, 1)
		assert.Equal(t, "setdigout 1", commands[0].Command)
	})

	t.Run("QueuesDeactivation", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/dout1_control/"+testIMEI, `{"activate": false}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "setdigout 0", decodeBody(t, rec)["command"])
	})

	t.Run("MissingActivateField", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/dout1_control/"+testIMEI, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/dout1_control/"+testIMEI, `{"activate":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCommandQueue(t *testing.T) {
	h, s := setupAPI(t)
	ctx := context.Background()

	t.Run("EmptyQueue", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/command_queue/"+testIMEI, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"commands": []}`, rec.Body.String())
	})

	t.Run("FIFOListing", func(t *testing.T) {
		id1, err := s.EnqueueCommand(ctx, testIMEI, "setdigout 1")
		require.NoError(t, err)
		id2, err := s.EnqueueCommand(ctx, testIMEI, "getinfo")
		require.NoError(t, err)

		rec := doRequest(t, h, http.MethodGet, "/command_queue/"+testIMEI, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, fmt.Sprintf(
			`{"commands": [{"id": %d, "command": "setdigout 1"}, {"id": %d, "command": "getinfo"}]}`,
			id1, id2), rec.Body.String())
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		id, err := s.EnqueueCommand(ctx, testIMEI, "setdigout 0")
		require.NoError(t, err)

		rec := doRequest(t, h, http.MethodPost,
			fmt.Sprintf("/command_queue/update/%d", id), `{"status": "completed"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var cmd models.Command
		require.NoError(t, s.DB().First(&cmd, id).Error)
		assert.Equal(t, models.CommandCompleted, cmd.Status)
	})

	t.Run("UpdateUnknownID", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/command_queue/update/999999", `{"status": "failed"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("UpdateRejectsNonTerminalStatus", func(t *testing.T) {
		id, err := s.EnqueueCommand(ctx, testIMEI, "getinfo")
		require.NoError(t, err)

		rec := doRequest(t, h, http.MethodPost,
			fmt.Sprintf("/command_queue/update/%d", id), `{"status": "pending"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UpdateBadID", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/command_queue/update/abc", `{"status": "failed"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
