// Package charging exposes the orchestrator over HTTP.
package charging

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/orchestrator"
	"github.com/chargeq/chargeq/core/store"
)

type chargerView struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Occupied bool         `json:"occupied"`
	Session  *sessionView `json:"session,omitempty"`
}

type sessionView struct {
	ID             string    `json:"id"`
	RequesterID    string    `json:"requester_id"`
	DisplayName    string    `json:"display_name"`
	SlotID         int       `json:"slot_id"`
	StartPercent   float64   `json:"start_percent"`
	TargetPercent  float64   `json:"target_percent"`
	StartedAt      time.Time `json:"started_at"`
	EstimatedEndAt time.Time `json:"estimated_end_at"`
}

type queueView struct {
	Position      int       `json:"position"`
	RequesterID   string    `json:"requester_id"`
	DisplayName   string    `json:"display_name"`
	StartPercent  float64   `json:"start_percent"`
	TargetPercent float64   `json:"target_percent"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSessionView(s model.Session) *sessionView {
	return &sessionView{
		ID:             s.ID,
		RequesterID:    s.Requester.ID,
		DisplayName:    s.Requester.DisplayName,
		SlotID:         s.SlotID,
		StartPercent:   s.StartPercent,
		TargetPercent:  s.TargetPercent,
		StartedAt:      s.StartedAt,
		EstimatedEndAt: s.EstimatedEndAt,
	}
}

func toQueueView(e model.QueueEntry) queueView {
	return queueView{
		Position:      e.Position,
		RequesterID:   e.Requester.ID,
		DisplayName:   e.Requester.DisplayName,
		StartPercent:  e.StartPercent,
		TargetPercent: e.TargetPercent,
		CreatedAt:     e.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// NewChargersHandler serves the pool occupancy via GET /api/chargers.
func NewChargersHandler(o *orchestrator.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		slots, err := o.ListSlots(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		views := make([]chargerView, 0, len(slots))
		for _, s := range slots {
			v := chargerView{ID: s.ID, Name: s.Name, Occupied: s.Occupied}
			if s.Session != nil {
				v.Session = toSessionView(*s.Session)
			}
			views = append(views, v)
		}
		writeJSON(w, http.StatusOK, views)
	})
}

// NewQueueHandler serves the waiting list via GET /api/queue and removes an
// entry via DELETE /api/queue?requester=<id>.
func NewQueueHandler(o *orchestrator.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			entries, err := o.ListQueue(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			views := make([]queueView, 0, len(entries))
			for _, e := range entries {
				views = append(views, toQueueView(e))
			}
			writeJSON(w, http.StatusOK, views)
		case http.MethodDelete:
			requesterID := r.URL.Query().Get("requester")
			if requesterID == "" {
				writeError(w, http.StatusBadRequest, "requester is required")
				return
			}
			left, err := o.LeaveQueue(r.Context(), requesterID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"left": left})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

type chargeRequest struct {
	RequesterID   string  `json:"requester_id"`
	DisplayName   string  `json:"display_name"`
	VehicleModel  string  `json:"vehicle_model"`
	VehicleYear   int     `json:"vehicle_year"`
	VehicleTrim   string  `json:"vehicle_trim"`
	StartPercent  float64 `json:"start_percent"`
	TargetPercent float64 `json:"target_percent"`
}

// NewChargeHandler admits a requester via POST /api/charge and ends a
// session via DELETE /api/charge?requester=<id>.
func NewChargeHandler(o *orchestrator.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req chargeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
				return
			}
			if req.RequesterID == "" {
				writeError(w, http.StatusBadRequest, "requester_id is required")
				return
			}
			requester := model.Requester{
				ID:           req.RequesterID,
				DisplayName:  req.DisplayName,
				VehicleModel: req.VehicleModel,
				VehicleYear:  req.VehicleYear,
				VehicleTrim:  req.VehicleTrim,
			}
			adm, err := o.RequestCharging(r.Context(), requester, req.StartPercent, req.TargetPercent)
			switch {
			case err == nil:
			case errors.Is(err, orchestrator.ErrAlreadyActive):
				writeError(w, http.StatusConflict, err.Error())
				return
			case errors.Is(err, store.ErrConflict):
				writeError(w, http.StatusConflict, err.Error())
				return
			default:
				var verr orchestrator.ValidationError
				if errors.As(err, &verr) {
					writeError(w, http.StatusBadRequest, verr.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if adm.Session != nil {
				writeJSON(w, http.StatusCreated, map[string]any{
					"state":   "charging",
					"session": toSessionView(*adm.Session),
				})
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]any{
				"state": "queued",
				"entry": toQueueView(*adm.Entry),
			})
		case http.MethodDelete:
			requesterID := r.URL.Query().Get("requester")
			if requesterID == "" {
				writeError(w, http.StatusBadRequest, "requester is required")
				return
			}
			stopped, err := o.StopCharging(r.Context(), requesterID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// NewStatusHandler reports a requester's current standing via
// GET /api/status?requester=<id>.
func NewStatusHandler(o *orchestrator.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		requesterID := r.URL.Query().Get("requester")
		if requesterID == "" {
			writeError(w, http.StatusBadRequest, "requester is required")
			return
		}
		progress, ok, err := o.ProgressFor(r.Context(), requesterID, time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if ok {
			writeJSON(w, http.StatusOK, map[string]any{
				"state":             "charging",
				"session":           toSessionView(progress.Session),
				"current_percent":   progress.CurrentPercent,
				"remaining_minutes": progress.RemainingMinutes,
				"remaining_display": progress.RemainingDisplay,
				"insights":          progress.Insights,
			})
			return
		}
		entry, queued, err := o.QueueEntryFor(r.Context(), requesterID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if queued {
			writeJSON(w, http.StatusOK, map[string]any{
				"state": "queued",
				"entry": toQueueView(entry),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"state": "idle"})
	})
}

// NewMux routes the charging API.
func NewMux(o *orchestrator.Orchestrator) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/chargers", NewChargersHandler(o))
	mux.Handle("/api/queue", NewQueueHandler(o))
	mux.Handle("/api/charge", NewChargeHandler(o))
	mux.Handle("/api/status", NewStatusHandler(o))
	return mux
}
