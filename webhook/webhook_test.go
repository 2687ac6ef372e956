package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/oppscout/models"
)

func quietSender() *Sender {
	s := NewSender(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.delays = []time.Duration{0, 0, 0}
	return s
}

func TestDeliver_SignsBody(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	event := DiscoveryCompleted(models.RunSummary{RunID: "run-42", Total: 3})
	require.NoError(t, quietSender().Deliver(context.Background(), srv.URL, "s3cret", event))

	assert.Equal(t, Sign("s3cret", gotBody), gotSig)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventDiscoveryCompleted, decoded["type"])
	assert.Equal(t, "run-42", decoded["run_id"])
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, quietSender().Deliver(context.Background(), srv.URL, "", &Event{Type: "x"}))
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := quietSender().Deliver(context.Background(), srv.URL, "", &Event{Type: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	done := quietSender().DeliverAsync(srv.URL, "", &Event{Type: EventDiscoveryCompleted})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestSign(t *testing.T) {
	sig := Sign("key", []byte("body"))
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, sig)
	assert.NotEqual(t, sig, Sign("other", []byte("body")))
}
