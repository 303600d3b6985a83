package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/meetups/internal/config"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/geocoder89/meetups/internal/utils"
	"github.com/gin-gonic/gin"
)

type RegistrationsService interface {
	Create(ctx context.Context, r registration.Registration) (registration.Registration, error)
	GetByID(ctx context.Context, id string) (registration.Registration, bool, error)
	Update(ctx context.Context, r registration.Registration) (registration.Registration, error)
	Delete(ctx context.Context, r registration.Registration) error
	Find(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error)
}

type RegistrationHandler struct {
	registrations RegistrationsService
	timeout       time.Duration
}

func NewRegistrationHandler(registrations RegistrationsService, timeout time.Duration) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, timeout: timeout}
}

func (h *RegistrationHandler) Register(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	reg, err := h.registrations.Create(cctx, registration.NewFromCreateRequest(req))

	if err != nil {
		RespondServiceError(ctx, err, "Could not register for event")
		return
	}

	ctx.JSON(http.StatusCreated, registration.NewResponse(reg))
}

func (h *RegistrationHandler) GetRegistrationById(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Registration not found")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	reg, found, err := h.registrations.GetByID(cctx, id)

	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch registration")
		return
	}

	if !found {
		RespondNotFound(ctx, "Registration not found")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, registration.NewResponse(reg))
}

func (h *RegistrationHandler) UpdateRegistration(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Registration not found")
		return
	}

	var req registration.UpdateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	reg, err := h.registrations.Update(cctx, registration.Registration{ID: id, NameTag: req.NameTag})

	if err != nil {
		RespondServiceError(ctx, err, "Could not update registration")
		return
	}

	ctx.JSON(http.StatusOK, registration.NewResponse(reg))
}

func (h *RegistrationHandler) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Registration not found")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	err := h.registrations.Delete(cctx, registration.Registration{ID: id})

	if err != nil {
		RespondServiceError(ctx, err, "Could not cancel registration")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GET /api/registration?id=&nameTag=&eventId=&participantId=&page=&size=
func (h *RegistrationHandler) ListRegistrations(ctx *gin.Context) {
	var errs queryErrors

	filter := registration.Filter{
		ID:            optionalUUID(ctx, "id", &errs),
		NameTag:       optionalString(ctx, "nameTag"),
		EventID:       optionalUUID(ctx, "eventId", &errs),
		ParticipantID: optionalInt64(ctx, "participantId", &errs),
	}

	req := pageRequest(ctx, &errs)

	if len(errs) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", errs.details())
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.registrations.Find(cctx, filter, req)

	if err != nil {
		RespondServiceError(ctx, err, "Could not list registrations")
		return
	}

	ctx.JSON(http.StatusOK, newPageResponse(result, registration.NewResponse))
}
