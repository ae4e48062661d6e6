package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

func newTestClient(url string) *Client {
	cfg := &utils.PredictConfig{}
	cfg.Predict.URL = url
	cfg.Predict.DeviceID = "device-01"
	cfg.Predict.TimeoutMs = 2000
	return NewClient(cfg)
}

func someRecords() []models.SensorRecord {
	return []models.SensorRecord{
		{SessionID: "sess_a", Event: models.EventRecordingStart},
		{SessionID: "sess_a", Event: models.EventRecordingStop},
	}
}

func TestPredictPINSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "device-01", req.DeviceID)
		assert.Equal(t, "sess_a", req.SessionID)
		assert.Len(t, req.Records, 2)

		json.NewEncoder(w).Encode(Response{PredictedPIN: "1478"})
	}))
	defer srv.Close()

	pin, err := newTestClient(srv.URL).PredictPIN(context.Background(), someRecords())
	require.NoError(t, err)
	assert.Equal(t, "1478", pin)
}

func TestPredictPINBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{Error: "model unavailable"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PredictPIN(context.Background(), someRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestPredictPINHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PredictPIN(context.Background(), someRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestPredictPINUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // reject all connections

	_, err := newTestClient(srv.URL).PredictPIN(context.Background(), someRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestPredictPINEmptyBatch(t *testing.T) {
	_, err := newTestClient("http://localhost:0").PredictPIN(context.Background(), nil)
	require.Error(t, err, "nothing to send is a local failure, not a network call")
}
