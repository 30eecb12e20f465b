package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/notify"
)

func TestDisabledNotifierIsNoOp(t *testing.T) {
	n := New("")
	assert.False(t, n.Enabled())
	err := n.NotifyQueueEmpty(context.Background(), notify.QueueEmpty{At: time.Now()})
	assert.NoError(t, err)
}

func TestChargerJoinPayload(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL)
	err := n.NotifyChargerJoin(context.Background(), notify.ChargerJoin{
		Requester:      model.Requester{ID: "u1", DisplayName: "Alice"},
		SlotID:         1,
		SlotName:       "Charger A",
		StartPercent:   20,
		TargetPercent:  80,
		EstimatedEndAt: time.Date(2025, 6, 1, 17, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Alice")
	assert.Contains(t, got.Text, "Charger A")
	require.NotEmpty(t, got.Blocks)
	assert.Equal(t, "section", got.Blocks[0].Type)
}

func TestPromotedJoinUsesQueueWording(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	n := New(srv.URL)
	err := n.NotifyChargerJoin(context.Background(), notify.ChargerJoin{
		Requester: model.Requester{DisplayName: "Carol"},
		SlotName:  "Charger A",
		Promoted:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "queue")
}

func TestQueueLeaveReasons(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &p)
		texts = append(texts, p.Text)
	}))
	defer srv.Close()

	n := New(srv.URL)
	ctx := context.Background()
	require.NoError(t, n.NotifyQueueLeave(ctx, notify.QueueLeave{
		Requester: model.Requester{DisplayName: "Bob"}, Position: 2, Reason: notify.ReasonLeft,
	}))
	require.NoError(t, n.NotifyQueueLeave(ctx, notify.QueueLeave{
		Requester: model.Requester{DisplayName: "Bob"}, Position: 1, Reason: notify.ReasonMovedToCharger,
	}))
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "position 2")
	assert.Contains(t, texts[1], "charger")
}

func TestNon200IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := New(srv.URL)
	err := n.NotifyQueueEmpty(context.Background(), notify.QueueEmpty{})
	assert.Error(t, err)
}
