// Package service holds the event and registration rules that sit between the
// HTTP handlers and the stores: uniqueness on create and delete safety.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"go.opentelemetry.io/otel"
)

// ErrInvalidArgument marks a caller contract violation, e.g. update or delete without an id.
var ErrInvalidArgument = errors.New("invalid argument")

var tracer = otel.Tracer("github.com/geocoder89/meetups/internal/service")

// EventStore reports missing rows with event.ErrNotFound.
type EventStore interface {
	Insert(ctx context.Context, e event.Event) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) (event.Event, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error)
	FindExisting(ctx context.Context, key event.Key) (event.Event, error)
}

// RegistrationStore reports missing rows with registration.ErrNotFound.
type RegistrationStore interface {
	Insert(ctx context.Context, r registration.Registration) (registration.Registration, error)
	GetByID(ctx context.Context, id string) (registration.Registration, error)
	Save(ctx context.Context, r registration.Registration) (registration.Registration, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error)
	FindExistingForEvent(ctx context.Context, eventID string, participantID int64) (registration.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error)
}

// RegistrationLister resolves the registrations that point at an event.
type RegistrationLister interface {
	ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error)
}

// EventLookup resolves a registration's event reference.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (event.Event, bool, error)
}

// Rejection kinds, one per business rule a request can break.
const (
	RejectDuplicateEvent        = "duplicate_event"
	RejectDuplicateRegistration = "duplicate_registration"
	RejectActiveRegistrations   = "active_registrations"
	RejectInvalidEventReference = "invalid_event_reference"
)

// RejectionRecorder counts requests refused by a business rule.
type RejectionRecorder interface {
	RecordRejection(kind string)
}

type noopRejections struct{}

func (noopRejections) RecordRejection(string) {}

type options struct {
	rejections RejectionRecorder
}

type Option func(*options)

// WithRejectionRecorder reports every refused create or delete to r.
func WithRejectionRecorder(r RejectionRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.rejections = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{rejections: noopRejections{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stores keep microseconds (postgres timestamptz), so do we.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
