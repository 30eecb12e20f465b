package charging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	corecharging "github.com/chargeq/chargeq/core/charging"
	"github.com/chargeq/chargeq/core/orchestrator"
	"github.com/chargeq/chargeq/core/pool"
	"github.com/chargeq/chargeq/core/profile"
	"github.com/chargeq/chargeq/infra/logger"
	"github.com/chargeq/chargeq/infra/store/memstore"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	st := memstore.New(nil)
	o, err := orchestrator.New(st, pool.New([]string{"Charger A", "Charger B"}),
		corecharging.NewEstimator(), profile.NoneFinder{}, nil, nil, logger.NopLogger{}, 75)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	return NewMux(o)
}

func postCharge(t *testing.T, mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/charge", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestChargeFlow(t *testing.T) {
	mux := newTestMux(t)

	rr := postCharge(t, mux, `{"requester_id":"alice","display_name":"Alice","start_percent":20,"target_percent":80}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("alice: %d %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		State   string `json:"state"`
		Session struct {
			SlotID int `json:"slot_id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != "charging" || resp.Session.SlotID != 1 {
		t.Fatalf("alice admission: %+v", resp)
	}

	postCharge(t, mux, `{"requester_id":"bob","start_percent":30,"target_percent":90}`)
	rr = postCharge(t, mux, `{"requester_id":"carol","start_percent":10,"target_percent":70}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("carol: %d %s", rr.Code, rr.Body.String())
	}
	var queued struct {
		State string `json:"state"`
		Entry struct {
			Position int `json:"position"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if queued.State != "queued" || queued.Entry.Position != 1 {
		t.Fatalf("carol entry: %+v", queued)
	}

	// Full pool and queue visible on the read endpoints.
	req := httptest.NewRequest(http.MethodGet, "/api/chargers", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("chargers: %d", rr.Code)
	}
	var chargers []chargerView
	if err := json.Unmarshal(rr.Body.Bytes(), &chargers); err != nil {
		t.Fatalf("decode chargers: %v", err)
	}
	if len(chargers) != 2 || !chargers[0].Occupied || !chargers[1].Occupied {
		t.Fatalf("chargers: %+v", chargers)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	var entries []queueView
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(entries) != 1 || entries[0].RequesterID != "carol" {
		t.Fatalf("queue: %+v", entries)
	}

	// Stopping alice promotes carol.
	req = httptest.NewRequest(http.MethodDelete, "/api/charge?requester=alice", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "true") {
		t.Fatalf("stop alice: %d %s", rr.Code, rr.Body.String())
	}
	req = httptest.NewRequest(http.MethodGet, "/api/status?requester=carol", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	var status struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != "charging" {
		t.Fatalf("carol status: %+v", status)
	}
}

func TestChargeValidationAndConflicts(t *testing.T) {
	mux := newTestMux(t)

	rr := postCharge(t, mux, `{"requester_id":"alice","start_percent":80,"target_percent":20}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("inverted percents: %d", rr.Code)
	}
	rr = postCharge(t, mux, `{"start_percent":20,"target_percent":80}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing requester: %d", rr.Code)
	}
	rr = postCharge(t, mux, `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad body: %d", rr.Code)
	}

	postCharge(t, mux, `{"requester_id":"alice","start_percent":20,"target_percent":80}`)
	rr = postCharge(t, mux, `{"requester_id":"alice","start_percent":20,"target_percent":80}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("double request: %d", rr.Code)
	}
}

func TestStatusAndQueueEndpoints(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status?requester=ghost", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "idle") {
		t.Fatalf("idle status: %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing requester param: %d", rr.Code)
	}

	// Leaving a queue you are not in is a no-op.
	req = httptest.NewRequest(http.MethodDelete, "/api/queue?requester=ghost", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "false") {
		t.Fatalf("absent leave: %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/api/chargers", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("bad method: %d", rr.Code)
	}
}
