package agenda

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/schedra/schedra/internal/rest"
	"github.com/schedra/schedra/internal/utils"
	"github.com/schedra/schedra/pkg/recurrence"
	log "github.com/sirupsen/logrus"
)

type EntryDTO struct {
	EventID     int64     `json:"eventId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsRecurring bool      `json:"isRecurring"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

type Handler struct {
	service *Service
	clock   utils.Clock
}

func NewHandler(service *Service, clock utils.Clock) *Handler {
	return &Handler{service: service, clock: clock}
}

// GetCalendar returns the occurrences within the start/end query window. The
// window defaults to the current month when not supplied; the default is
// view policy, the underlying services always receive an explicit window.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting calendar view")

	from, to, ok := h.window(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Calendar(r.Context(), from, to)
	if err != nil {
		writeAggregationError(w, err)
		return
	}
	writeEntries(w, entries)
}

func (h *Handler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting upcoming view")

	entries, err := h.service.Upcoming(r.Context())
	if err != nil {
		writeAggregationError(w, err)
		return
	}
	writeEntries(w, entries)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	startString := r.URL.Query().Get("start")
	endString := r.URL.Query().Get("end")

	var from time.Time
	if startString == "" {
		now := h.clock.Now().UTC()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		from, err = time.Parse(time.RFC3339, startString)
		if err != nil {
			writeWindowError(w, "Invalid start (date) format")
			return time.Time{}, time.Time{}, false
		}
	}

	var to time.Time
	if endString == "" {
		to = from.AddDate(0, 1, 0)
	} else {
		var err error
		to, err = time.Parse(time.RFC3339, endString)
		if err != nil {
			writeWindowError(w, "Invalid end (date) format")
			return time.Time{}, time.Time{}, false
		}
	}

	if to.Before(from) {
		writeWindowError(w, "Window end must not precede window start")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func writeEntries(w http.ResponseWriter, entries []Entry) {
	dtos := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, EntryDTO(entry))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeWindowError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{
		Error:   message,
		Details: "Window instants must be in RFC3339 format",
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeAggregationError(w http.ResponseWriter, err error) {
	if errors.Is(err, recurrence.ErrExpansionLimit) {
		// Internal invariant failure: report it instead of serving a
		// truncated view.
		log.Errorf("aggregation hit the expansion safety bound: %v", err)
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
