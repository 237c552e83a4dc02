package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/schedra/schedra/internal/rest"
	"github.com/schedra/schedra/pkg/recurrence"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	IsRecurring    bool      `json:"isRecurring"`
	RecurrenceRule string    `json:"recurrenceRule,omitempty"`
	Exceptions     []string  `json:"exceptions,omitempty"`
}

type EventRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	IsRecurring bool                `json:"isRecurring"`
	Recurrence  *recurrence.Request `json:"recurrence,omitempty"`
}

type OccurrencePatchRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
}

type Handler struct {
	eventService Service
}

func NewHandler(eventService Service) *Handler {
	return &Handler{eventService}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating new event")

	var request EventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), draftFromRequest(request))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(eventToDTO(event)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := eventId(w, r)
	if !ok {
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(eventToDTO(event)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, eventToDTO(event))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// UpdateEvent replaces a whole event or series. With an occurrenceDate query
// parameter it instead splits that single occurrence off the series and
// answers with the newly created standalone event.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := eventId(w, r)
	if !ok {
		return
	}

	if occurrenceDate := r.URL.Query().Get("occurrenceDate"); occurrenceDate != "" {
		h.modifyOccurrence(w, r, id, occurrenceDate)
		return
	}

	var request EventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return
	}

	event, err := h.eventService.UpdateEvent(r.Context(), id, draftFromRequest(request))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(eventToDTO(event)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) modifyOccurrence(w http.ResponseWriter, r *http.Request, id int64, occurrenceDate string) {
	occurrenceStart, err := time.Parse(time.RFC3339, occurrenceDate)
	if err != nil {
		writeBadRequest(w, "Invalid occurrenceDate format", "occurrenceDate must be in RFC3339 format")
		return
	}

	var patchRequest OccurrencePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&patchRequest); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return
	}

	standalone, err := h.eventService.ModifyOccurrence(r.Context(), id, occurrenceStart, OccurrencePatch{
		Title:       patchRequest.Title,
		Description: patchRequest.Description,
		Start:       patchRequest.Start,
		End:         patchRequest.End,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(eventToDTO(standalone)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// DeleteEvent deletes a whole event or series. With an occurrenceDate query
// parameter it cancels just that occurrence instead.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := eventId(w, r)
	if !ok {
		return
	}

	if occurrenceDate := r.URL.Query().Get("occurrenceDate"); occurrenceDate != "" {
		occurrenceStart, err := time.Parse(time.RFC3339, occurrenceDate)
		if err != nil {
			writeBadRequest(w, "Invalid occurrenceDate format", "occurrenceDate must be in RFC3339 format")
			return
		}
		if _, err := h.eventService.CancelOccurrence(r.Context(), id, occurrenceStart); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.eventService.DeleteEvent(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func eventId(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["eventId"], 10, 64)
	if err != nil {
		writeBadRequest(w, "Invalid event id", "")
		return 0, false
	}
	return id, true
}

func draftFromRequest(request EventRequest) Draft {
	return Draft{
		Title:       request.Title,
		Description: request.Description,
		Start:       request.Start,
		End:         request.End,
		Recurring:   request.IsRecurring,
		Recurrence:  request.Recurrence,
	}
}

func eventToDTO(event Event) EventDTO {
	dto := EventDTO{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Start:       event.Start,
		End:         event.End,
		IsRecurring: event.Schedule.IsRecurring(),
		Exceptions:  event.Exceptions.Strings(),
	}
	if rule, ok := event.Schedule.Rule(); ok {
		dto.RecurrenceRule = rule.String()
	}
	return dto
}

func writeBadRequest(w http.ResponseWriter, message, details string) {
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: message, Details: details}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *recurrence.ValidationError
	switch {
	case errors.Is(err, ErrEventNotFound):
		http.Error(w, "Event not found", http.StatusNotFound)
	case errors.As(err, &validationErr),
		errors.Is(err, ErrInvalidTimeRange),
		errors.Is(err, ErrRecurrenceNeeded),
		errors.Is(err, ErrNotRecurring),
		errors.Is(err, ErrNotAnOccurrence),
		errors.Is(err, ErrPastOccurrence):
		writeBadRequest(w, err.Error(), "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
