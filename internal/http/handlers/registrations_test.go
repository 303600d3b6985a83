package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/geocoder89/meetups/internal/http/handlers"
)

type fakeRegistrationsService struct {
	createFn func(ctx context.Context, r registration.Registration) (registration.Registration, error)
	getFn    func(ctx context.Context, id string) (registration.Registration, bool, error)
	updateFn func(ctx context.Context, r registration.Registration) (registration.Registration, error)
	deleteFn func(ctx context.Context, r registration.Registration) error
	findFn   func(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error)
}

func (f *fakeRegistrationsService) Create(ctx context.Context, r registration.Registration) (registration.Registration, error) {
	if f.createFn != nil {
		return f.createFn(ctx, r)
	}

	return r, nil
}

func (f *fakeRegistrationsService) GetByID(ctx context.Context, id string) (registration.Registration, bool, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return registration.Registration{}, false, nil
}

func (f *fakeRegistrationsService) Update(ctx context.Context, r registration.Registration) (registration.Registration, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, r)
	}

	return r, nil
}

func (f *fakeRegistrationsService) Delete(ctx context.Context, r registration.Registration) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, r)
	}

	return nil
}

func (f *fakeRegistrationsService) Find(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error) {
	if f.findFn != nil {
		return f.findFn(ctx, filter, req)
	}

	return page.Of[registration.Registration](nil, req, 0), nil
}

func TestRegisterHandler(t *testing.T) {
	eventID := newUUID()
	validBody := `{"eventId":"` + eventID + `","nameTag":"Ada","participantId":25}`

	tests := []struct {
		name           string
		body           string
		serviceSetup   func(*fakeRegistrationsService)
		wantStatusCode int
		wantCode       string
	}{
		{
			name: "success",
			body: validBody,
			serviceSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, r registration.Registration) (registration.Registration, error) {
					if r.EventID != eventID || r.ParticipantID != 25 {
						return registration.Registration{}, errors.New("request not mapped")
					}
					r.ID = newUUID()
					r.DateOfRegistration = time.Now().UTC()
					return r, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_fields",
			body:           `{"nameTag":"Ada"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name:           "event_id_not_uuid",
			body:           `{"eventId":"abc","nameTag":"Ada","participantId":25}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name: "already_registered",
			body: validBody,
			serviceSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, r registration.Registration) (registration.Registration, error) {
					return registration.Registration{}, registration.ErrDuplicate
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "registration_already_created",
		},
		{
			name: "unknown_event",
			body: validBody,
			serviceSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, r registration.Registration) (registration.Registration, error) {
					return registration.Registration{}, registration.ErrInvalidEventReference
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_event_reference",
		},
		{
			name: "service_error",
			body: validBody,
			serviceSetup: func(f *fakeRegistrationsService) {
				f.createFn = func(ctx context.Context, r registration.Registration) (registration.Registration, error) {
					return registration.Registration{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       "internal_error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationsService{}

			if tt.serviceSetup != nil {
				tt.serviceSetup(fake)
			}

			h := handlers.NewRegistrationHandler(fake, time.Second)
			r := setupRouter(http.MethodPost, "/api/registration", h.Register)

			req := httptest.NewRequest(http.MethodPost, "/api/registration", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := decodeError(t, w).Error.Code; got != tt.wantCode {
					t.Fatalf("got code %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

func TestGetRegistrationHandler(t *testing.T) {
	id := newUUID()

	found := &fakeRegistrationsService{
		getFn: func(ctx context.Context, got string) (registration.Registration, bool, error) {
			return registration.Registration{ID: got, NameTag: "Ada", ParticipantID: 25}, true, nil
		},
	}

	tests := []struct {
		name           string
		url            string
		svc            *fakeRegistrationsService
		wantStatusCode int
	}{
		{name: "success", url: "/api/registration/" + id, svc: found, wantStatusCode: http.StatusOK},
		{name: "absent", url: "/api/registration/" + id, svc: &fakeRegistrationsService{}, wantStatusCode: http.StatusNotFound},
		{name: "malformed_id", url: "/api/registration/xyz", svc: found, wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewRegistrationHandler(tt.svc, time.Second)
			r := setupRouter(http.MethodGet, "/api/registration/:id", h.GetRegistrationById)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateRegistrationHandler(t *testing.T) {
	id := newUUID()

	tests := []struct {
		name           string
		body           string
		serviceSetup   func(*fakeRegistrationsService)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"nameTag":"Countess"}`,
			serviceSetup: func(f *fakeRegistrationsService) {
				f.updateFn = func(ctx context.Context, r registration.Registration) (registration.Registration, error) {
					if r.ID != id || r.NameTag != "Countess" {
						return registration.Registration{}, errors.New("update not mapped")
					}
					return r, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			body: `{"nameTag":"Countess"}`,
			serviceSetup: func(f *fakeRegistrationsService) {
				f.updateFn = func(ctx context.Context, r registration.Registration) (registration.Registration, error) {
					return registration.Registration{}, registration.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "validation_error",
			body:           `{"nameTag":""}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationsService{}

			if tt.serviceSetup != nil {
				tt.serviceSetup(fake)
			}

			h := handlers.NewRegistrationHandler(fake, time.Second)
			r := setupRouter(http.MethodPut, "/api/registration/:id", h.UpdateRegistration)

			req := httptest.NewRequest(http.MethodPut, "/api/registration/"+id, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestCancelRegistrationHandler(t *testing.T) {
	tests := []struct {
		name           string
		deleteErr      error
		wantStatusCode int
	}{
		{name: "success", wantStatusCode: http.StatusNoContent},
		{name: "not_found", deleteErr: registration.ErrNotFound, wantStatusCode: http.StatusNotFound},
		{name: "service_error", deleteErr: errors.New("db error"), wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationsService{
				deleteFn: func(ctx context.Context, r registration.Registration) error {
					return tt.deleteErr
				},
			}

			h := handlers.NewRegistrationHandler(fake, time.Second)
			r := setupRouter(http.MethodDelete, "/api/registration/:id", h.Cancel)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/registration/"+newUUID(), nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListRegistrationsHandler(t *testing.T) {
	eventID := newUUID()
	regID := newUUID()

	tests := []struct {
		name           string
		url            string
		wantStatusCode int
	}{
		{name: "by_event_and_participant", url: "/api/registration?eventId=" + eventID + "&participantId=25&nameTag=ad&id=" + regID, wantStatusCode: http.StatusOK},
		{name: "bad_id", url: "/api/registration?id=12", wantStatusCode: http.StatusBadRequest},
		{name: "bad_event_id", url: "/api/registration?eventId=nope", wantStatusCode: http.StatusBadRequest},
		{name: "bad_participant", url: "/api/registration?participantId=x", wantStatusCode: http.StatusBadRequest},
		{name: "negative_page", url: "/api/registration?page=-1", wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationsService{
				findFn: func(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error) {
					if filter.EventID == nil || *filter.EventID != eventID {
						t.Errorf("event filter not set")
					}
					if filter.ParticipantID == nil || *filter.ParticipantID != 25 {
						t.Errorf("participant filter not set")
					}
					if filter.NameTag == nil || *filter.NameTag != "ad" {
						t.Errorf("name tag filter not set")
					}
					if filter.ID == nil || *filter.ID != regID {
						t.Errorf("id filter not set")
					}
					return page.Of([]registration.Registration{{ID: newUUID(), EventID: eventID}}, req, 1), nil
				},
			}

			h := handlers.NewRegistrationHandler(fake, time.Second)
			r := setupRouter(http.MethodGet, "/api/registration", h.ListRegistrations)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
