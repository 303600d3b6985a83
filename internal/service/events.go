package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"go.opentelemetry.io/otel/attribute"
)

type EventService struct {
	events        EventStore
	registrations RegistrationLister
	log           *slog.Logger
	rejections    RejectionRecorder
	now           func() time.Time
}

func NewEventService(events EventStore, registrations RegistrationLister, log *slog.Logger, opts ...Option) *EventService {
	if log == nil {
		log = slog.Default()
	}

	o := buildOptions(opts)

	return &EventService{
		events:        events,
		registrations: registrations,
		log:           log,
		rejections:    o.rejections,
		now:           defaultNow,
	}
}

// Create rejects an event whose uniqueness key is already taken. The store's unique
// index backs this check up when two creates race past it.
func (s *EventService) Create(ctx context.Context, e event.Event) (event.Event, error) {
	ctx, span := tracer.Start(ctx, "EventService.Create")
	defer span.End()

	existing, found, err := s.FindExistingEvent(ctx, e)

	if err != nil {
		return event.Event{}, err
	}

	if found {
		s.log.InfoContext(ctx, "duplicate event rejected", "existing_id", existing.ID, "organizer_id", e.OrganizerID)
		s.rejections.RecordRejection(RejectDuplicateEvent)
		return event.Event{}, event.ErrDuplicate
	}

	e.CreationDate = s.now()

	created, err := s.events.Insert(ctx, e)

	if err != nil {
		if errors.Is(err, event.ErrDuplicate) {
			s.log.InfoContext(ctx, "duplicate event rejected by store", "organizer_id", e.OrganizerID)
			s.rejections.RecordRejection(RejectDuplicateEvent)
			return event.Event{}, err
		}

		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}

	span.SetAttributes(attribute.String("event.id", created.ID))

	return created, nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (event.Event, bool, error) {
	e, err := s.events.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return event.Event{}, false, nil
		}

		return event.Event{}, false, fmt.Errorf("get event: %w", err)
	}

	return e, true, nil
}

// Update does not re-check the uniqueness key.
func (s *EventService) Update(ctx context.Context, e event.Event) (event.Event, error) {
	if e.ID == "" {
		return event.Event{}, fmt.Errorf("%w: event id cannot be empty", ErrInvalidArgument)
	}

	ctx, span := tracer.Start(ctx, "EventService.Update")
	defer span.End()

	updated, err := s.events.Save(ctx, e)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) || errors.Is(err, event.ErrDuplicate) {
			return event.Event{}, err
		}

		return event.Event{}, fmt.Errorf("save event: %w", err)
	}

	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, e event.Event) error {
	if e.ID == "" {
		return fmt.Errorf("%w: event id cannot be empty", ErrInvalidArgument)
	}

	ctx, span := tracer.Start(ctx, "EventService.Delete")
	defer span.End()

	err := s.ValidateNoActiveRegistrations(ctx, e)

	if err != nil {
		return err
	}

	err = s.events.Delete(ctx, e.ID)

	if err != nil {
		if errors.Is(err, event.ErrHasActiveRegistrations) {
			s.log.InfoContext(ctx, "event delete blocked by store", "event_id", e.ID)
			s.rejections.RecordRejection(RejectActiveRegistrations)
			return err
		}

		if errors.Is(err, event.ErrNotFound) {
			return err
		}

		return fmt.Errorf("delete event: %w", err)
	}

	return nil
}

func (s *EventService) ValidateNoActiveRegistrations(ctx context.Context, e event.Event) error {
	regs, err := s.Registrations(ctx, e.ID)

	if err != nil {
		return err
	}

	if len(regs) > 0 {
		s.log.InfoContext(ctx, "event delete blocked", "event_id", e.ID, "registrations", len(regs))
		s.rejections.RecordRejection(RejectActiveRegistrations)
		return event.ErrHasActiveRegistrations
	}

	return nil
}

// Registrations is the event's back-reference, resolved by query.
func (s *EventService) Registrations(ctx context.Context, eventID string) ([]registration.Registration, error) {
	regs, err := s.registrations.ListByEvent(ctx, eventID)

	if err != nil {
		return nil, fmt.Errorf("list registrations for event: %w", err)
	}

	return regs, nil
}

func (s *EventService) Find(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error) {
	p, err := s.events.Find(ctx, filter, req)

	if err != nil {
		return page.Page[event.Event]{}, fmt.Errorf("find events: %w", err)
	}

	return p, nil
}

func (s *EventService) FindExistingEvent(ctx context.Context, e event.Event) (event.Event, bool, error) {
	existing, err := s.events.FindExisting(ctx, e.Key())

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return event.Event{}, false, nil
		}

		return event.Event{}, false, fmt.Errorf("find existing event: %w", err)
	}

	return existing, true, nil
}
