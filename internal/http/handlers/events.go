package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/meetups/internal/config"
	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/geocoder89/meetups/internal/utils"
	"github.com/gin-gonic/gin"
)

type EventsService interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, bool, error)
	Update(ctx context.Context, e event.Event) (event.Event, error)
	Delete(ctx context.Context, e event.Event) error
	Find(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error)
	Registrations(ctx context.Context, eventID string) ([]registration.Registration, error)
}

type EventsHandler struct {
	events  EventsService
	timeout time.Duration
}

func NewEventsHandler(events EventsService, timeout time.Duration) *EventsHandler {
	return &EventsHandler{events: events, timeout: timeout}
}

// eventDetail is the single-event payload: the event plus who signed up for it.
type eventDetail struct {
	event.Response
	Registrations []registration.Response `json:"registrations"`
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	created, err := h.events.Create(cctx, event.NewFromCreateRequest(req))

	if err != nil {
		RespondServiceError(ctx, err, "Could not create event")
		return
	}

	ctx.JSON(http.StatusCreated, event.NewResponse(created))
}

func (h *EventsHandler) GetEventById(ctx *gin.Context) {
	id := ctx.Param("id")

	// a malformed id can never resolve
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	e, found, err := h.events.GetByID(cctx, id)

	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch event")
		return
	}

	if !found {
		RespondNotFound(ctx, "Event not found")
		return
	}

	regs, err := h.events.Registrations(cctx, e.ID)

	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch event")
		return
	}

	detail := eventDetail{
		Response:      event.NewResponse(e),
		Registrations: make([]registration.Response, 0, len(regs)),
	}

	for _, r := range regs {
		detail.Registrations = append(detail.Registrations, registration.NewResponse(r))
	}

	RespondJSONWithETag(ctx, http.StatusOK, detail)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	updated, err := h.events.Update(cctx, event.Event{ID: id}.WithUpdate(req))

	if err != nil {
		RespondServiceError(ctx, err, "Could not update event")
		return
	}

	ctx.JSON(http.StatusOK, event.NewResponse(updated))
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	err := h.events.Delete(cctx, event.Event{ID: id})

	if err != nil {
		RespondServiceError(ctx, err, "Could not delete event")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GET /api/event?id=&title=&description=&eventType=&organizerId=&from=&to=&page=&size=
func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	var errs queryErrors

	filter := event.Filter{
		ID:          optionalUUID(ctx, "id", &errs),
		Title:       optionalString(ctx, "title"),
		Description: optionalString(ctx, "description"),
		OrganizerID: optionalInt64(ctx, "organizerId", &errs),
		From:        optionalDateTime(ctx, "from", &errs),
		To:          optionalDateTime(ctx, "to", &errs),
	}

	if raw := optionalString(ctx, "eventType"); raw != nil {
		t := event.Type(*raw)

		if !t.IsValid() {
			errs.add("eventType", "oneof", "must be one of FACE_TO_FACE, ONLINE")
		} else {
			filter.Type = &t
		}
	}

	req := pageRequest(ctx, &errs)

	if len(errs) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", errs.details())
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.events.Find(cctx, filter, req)

	if err != nil {
		RespondServiceError(ctx, err, "Could not list events")
		return
	}

	ctx.JSON(http.StatusOK, newPageResponse(result, event.NewResponse))
}
