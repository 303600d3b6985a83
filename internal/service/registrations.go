package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"go.opentelemetry.io/otel/attribute"
)

type RegistrationService struct {
	registrations RegistrationStore
	events        EventLookup
	log           *slog.Logger
	rejections    RejectionRecorder
	now           func() time.Time
}

func NewRegistrationService(registrations RegistrationStore, events EventLookup, log *slog.Logger, opts ...Option) *RegistrationService {
	if log == nil {
		log = slog.Default()
	}

	o := buildOptions(opts)

	return &RegistrationService{
		registrations: registrations,
		events:        events,
		log:           log,
		rejections:    o.rejections,
		now:           defaultNow,
	}
}

// Create requires a persisted event and rejects a second sign-up of the same
// participant for that event.
func (s *RegistrationService) Create(ctx context.Context, r registration.Registration) (registration.Registration, error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.Create")
	defer span.End()

	found := false

	if r.EventID != "" {
		var err error
		if _, found, err = s.events.GetByID(ctx, r.EventID); err != nil {
			return registration.Registration{}, err
		}
	}

	if !found {
		s.log.InfoContext(ctx, "registration for unknown event rejected", "event_id", r.EventID)
		s.rejections.RecordRejection(RejectInvalidEventReference)
		return registration.Registration{}, registration.ErrInvalidEventReference
	}

	existing, found, err := s.FindExistingRegistrationForEvent(ctx, r.EventID, r.ParticipantID)

	if err != nil {
		return registration.Registration{}, err
	}

	if found {
		s.log.InfoContext(ctx, "duplicate registration rejected",
			"existing_id", existing.ID,
			"event_id", r.EventID,
			"participant_id", r.ParticipantID,
		)
		s.rejections.RecordRejection(RejectDuplicateRegistration)
		return registration.Registration{}, registration.ErrDuplicate
	}

	r.DateOfRegistration = s.now()

	created, err := s.registrations.Insert(ctx, r)

	if err != nil {
		// the store reports lost races through the same sentinels
		switch {
		case errors.Is(err, registration.ErrDuplicate):
			s.rejections.RecordRejection(RejectDuplicateRegistration)
			return registration.Registration{}, err
		case errors.Is(err, registration.ErrInvalidEventReference):
			s.rejections.RecordRejection(RejectInvalidEventReference)
			return registration.Registration{}, err
		}

		return registration.Registration{}, fmt.Errorf("insert registration: %w", err)
	}

	span.SetAttributes(attribute.String("registration.id", created.ID))

	return created, nil
}

func (s *RegistrationService) GetByID(ctx context.Context, id string) (registration.Registration, bool, error) {
	r, err := s.registrations.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return registration.Registration{}, false, nil
		}

		return registration.Registration{}, false, fmt.Errorf("get registration: %w", err)
	}

	return r, true, nil
}

func (s *RegistrationService) Update(ctx context.Context, r registration.Registration) (registration.Registration, error) {
	if r.ID == "" {
		return registration.Registration{}, fmt.Errorf("%w: registration id cannot be empty", ErrInvalidArgument)
	}

	updated, err := s.registrations.Save(ctx, r)

	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return registration.Registration{}, err
		}

		return registration.Registration{}, fmt.Errorf("save registration: %w", err)
	}

	return updated, nil
}

func (s *RegistrationService) Delete(ctx context.Context, r registration.Registration) error {
	if r.ID == "" {
		return fmt.Errorf("%w: registration id cannot be empty", ErrInvalidArgument)
	}

	err := s.registrations.Delete(ctx, r.ID)

	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return err
		}

		return fmt.Errorf("delete registration: %w", err)
	}

	return nil
}

func (s *RegistrationService) Find(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error) {
	p, err := s.registrations.Find(ctx, filter, req)

	if err != nil {
		return page.Page[registration.Registration]{}, fmt.Errorf("find registrations: %w", err)
	}

	return p, nil
}

func (s *RegistrationService) FindExistingRegistrationForEvent(ctx context.Context, eventID string, participantID int64) (registration.Registration, bool, error) {
	existing, err := s.registrations.FindExistingForEvent(ctx, eventID, participantID)

	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return registration.Registration{}, false, nil
		}

		return registration.Registration{}, false, fmt.Errorf("find existing registration: %w", err)
	}

	return existing, true, nil
}
