package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/geocoder89/meetups/internal/http/handlers"
	"github.com/geocoder89/meetups/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// Fake implementation of handlers.EventsService

type fakeEventsService struct {
	createFn        func(ctx context.Context, e event.Event) (event.Event, error)
	getFn           func(ctx context.Context, id string) (event.Event, bool, error)
	updateFn        func(ctx context.Context, e event.Event) (event.Event, error)
	deleteFn        func(ctx context.Context, e event.Event) error
	findFn          func(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error)
	registrationsFn func(ctx context.Context, eventID string) ([]registration.Registration, error)
}

func (f *fakeEventsService) Create(ctx context.Context, e event.Event) (event.Event, error) {
	if f.createFn != nil {
		return f.createFn(ctx, e)
	}

	return event.Event{}, nil
}

func (f *fakeEventsService) GetByID(ctx context.Context, id string) (event.Event, bool, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return event.Event{}, false, nil
}

func (f *fakeEventsService) Update(ctx context.Context, e event.Event) (event.Event, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, e)
	}

	return e, nil
}

func (f *fakeEventsService) Delete(ctx context.Context, e event.Event) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, e)
	}

	return nil
}

func (f *fakeEventsService) Find(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error) {
	if f.findFn != nil {
		return f.findFn(ctx, filter, req)
	}

	return page.Of[event.Event](nil, req, 0), nil
}

func (f *fakeEventsService) Registrations(ctx context.Context, eventID string) ([]registration.Registration, error) {
	if f.registrationsFn != nil {
		return f.registrationsFn(ctx, eventID)
	}

	return nil, nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal error body: %v body=%s", err, w.Body.String())
	}

	return body
}

const validCreateBody = `{
	"title": "Women & Tech",
	"description": "Lightning talks",
	"startDate": "12/03/2026 18:00",
	"endDate": "12/03/2026 21:00",
	"eventType": "FACE_TO_FACE",
	"organizerId": 7
}`

// Create Event tests

func TestCreateEventHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		serviceSetup   func(*fakeEventsService)
		wantStatusCode int
		wantCode       string
	}{
		{
			name: "success",
			body: validCreateBody,
			serviceSetup: func(f *fakeEventsService) {
				f.createFn = func(ctx context.Context, e event.Event) (event.Event, error) {
					if !e.StartDate.Equal(time.Date(2026, time.March, 12, 18, 0, 0, 0, time.UTC)) {
						return event.Event{}, errors.New("start date was not parsed as dd/MM/yyyy HH:mm")
					}
					if e.Type != event.TypeFaceToFace || e.OrganizerID != 7 {
						return event.Event{}, errors.New("request not mapped")
					}

					e.ID = newUUID()
					e.CreationDate = now
					return e, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "validation_error",
			body:           `{"title": ""}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name: "end_before_start",
			body: `{
				"title": "Backwards",
				"description": "d",
				"startDate": "12/03/2026 21:00",
				"endDate": "12/03/2026 18:00",
				"eventType": "ONLINE",
				"organizerId": 7
			}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name: "wrong_date_format",
			body: `{
				"title": "ISO dates",
				"description": "d",
				"startDate": "2026-03-12T18:00:00Z",
				"endDate": "2026-03-12T21:00:00Z",
				"eventType": "ONLINE",
				"organizerId": 7
			}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name: "duplicate",
			body: validCreateBody,
			serviceSetup: func(f *fakeEventsService) {
				f.createFn = func(ctx context.Context, e event.Event) (event.Event, error) {
					return event.Event{}, event.ErrDuplicate
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "event_already_created",
		},
		{
			name: "service_error",
			body: validCreateBody,
			serviceSetup: func(f *fakeEventsService) {
				f.createFn = func(ctx context.Context, e event.Event) (event.Event, error) {
					return event.Event{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       "internal_error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventsService{}

			if tt.serviceSetup != nil {
				tt.serviceSetup(fake)
			}

			h := handlers.NewEventsHandler(fake, time.Second)
			r := setupRouter(http.MethodPost, "/api/event", h.CreateEvent)

			req := httptest.NewRequest(http.MethodPost, "/api/event", bytes.NewBufferString(tt.body))
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

func TestCreateEventHandler_ResponseShape(t *testing.T) {
	fake := &fakeEventsService{
		createFn: func(ctx context.Context, e event.Event) (event.Event, error) {
			e.ID = "6f1c1d2e-8a7b-4c3d-9e0f-112233445566"
			e.CreationDate = time.Date(2026, time.January, 5, 9, 30, 0, 0, time.UTC)
			return e, nil
		},
	}

	h := handlers.NewEventsHandler(fake, time.Second)
	r := setupRouter(http.MethodPost, "/api/event", h.CreateEvent)

	req := httptest.NewRequest(http.MethodPost, "/api/event", bytes.NewBufferString(validCreateBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]any{
		"id":           "6f1c1d2e-8a7b-4c3d-9e0f-112233445566",
		"creationDate": "05/01/2026 09:30",
		"startDate":    "12/03/2026 18:00",
		"endDate":      "12/03/2026 21:00",
		"eventType":    "FACE_TO_FACE",
		"organizerId":  float64(7),
	}

	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %q = %v, want %v (body=%s)", k, got[k], v, w.Body.String())
		}
	}
}

func TestGetEventByIdHandler(t *testing.T) {
	now := time.Now().UTC()
	validID := newUUID()
	missingID := newUUID()

	tests := []struct {
		name           string
		url            string
		serviceSetup   func(f *fakeEventsService)
		wantStatusCode int
		wantRegs       int
	}{
		{
			name: "success_with_registrations",
			url:  "/api/event/" + validID,
			serviceSetup: func(f *fakeEventsService) {
				f.getFn = func(ctx context.Context, id string) (event.Event, bool, error) {
					return event.Event{ID: id, Title: "Event-1", StartDate: now, EndDate: now.Add(time.Hour)}, true, nil
				}
				f.registrationsFn = func(ctx context.Context, eventID string) ([]registration.Registration, error) {
					return []registration.Registration{
						{ID: newUUID(), EventID: eventID, NameTag: "Ada", ParticipantID: 25},
						{ID: newUUID(), EventID: eventID, NameTag: "Grace", ParticipantID: 26},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantRegs:       2,
		},
		{
			name: "not_found",
			url:  "/api/event/" + missingID,
			serviceSetup: func(f *fakeEventsService) {
				f.getFn = func(ctx context.Context, id string) (event.Event, bool, error) {
					return event.Event{}, false, nil
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_id",
			url:            "/api/event/not-a-uuid",
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "service_error",
			url:  "/api/event/" + validID,
			serviceSetup: func(f *fakeEventsService) {
				f.getFn = func(ctx context.Context, id string) (event.Event, bool, error) {
					return event.Event{}, false, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventsService{}

			if tt.serviceSetup != nil {
				tt.serviceSetup(fake)
			}

			h := handlers.NewEventsHandler(fake, time.Second)
			r := setupRouter(http.MethodGet, "/api/event/:id", h.GetEventById)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var body struct {
				ID            string `json:"id"`
				Registrations []struct {
					NameTag string `json:"nameTag"`
				} `json:"registrations"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if body.ID == "" || len(body.Registrations) != tt.wantRegs {
				t.Fatalf("unexpected body: %s", w.Body.String())
			}
		})
	}
}

func TestGetEventByIDHandler_ETagNotModified(t *testing.T) {
	now := time.Now().UTC()
	validID := newUUID()
	calls := 0

	fake := &fakeEventsService{
		getFn: func(ctx context.Context, id string) (event.Event, bool, error) {
			calls++
			return event.Event{ID: id, Title: "Event-1", StartDate: now, EndDate: now.Add(time.Hour)}, true, nil
		},
	}

	h := handlers.NewEventsHandler(fake, time.Second)
	r := setupRouter(http.MethodGet, "/api/event/:id", h.GetEventById)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/api/event/"+validID, nil))

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header in first response")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/api/event/"+validID, nil)
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("second call got %d, want %d, body=%s", w2.Code, http.StatusNotModified, w2.Body.String())
	}

	if w2.Body.Len() != 0 {
		t.Fatalf("expected empty body for 304, got %q", w2.Body.String())
	}

	if calls != 2 {
		t.Fatalf("expected the service to be called on each lookup, got %d calls", calls)
	}
}

func TestUpdateEventHandler(t *testing.T) {
	validID := newUUID()

	const body = `{
		"title": "Updated Title",
		"description": "Updated Desc",
		"startDate": "01/04/2026 10:00",
		"endDate": "01/04/2026 12:00"
	}`

	tests := []struct {
		name           string
		url            string
		body           string
		serviceSetup   func(*fakeEventsService)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/api/event/" + validID,
			body: body,
			serviceSetup: func(f *fakeEventsService) {
				f.updateFn = func(ctx context.Context, e event.Event) (event.Event, error) {
					if e.ID != validID || e.Title != "Updated Title" {
						return event.Event{}, errors.New("update not mapped")
					}
					return e, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			url:  "/api/event/" + newUUID(),
			body: body,
			serviceSetup: func(f *fakeEventsService) {
				f.updateFn = func(ctx context.Context, e event.Event) (event.Event, error) {
					return event.Event{}, event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_id",
			url:            "/api/event/42",
			body:           body,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "validation_error",
			url:            "/api/event/" + validID,
			body:           `{"title": ""}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "collides_with_another_event",
			url:  "/api/event/" + validID,
			body: body,
			serviceSetup: func(f *fakeEventsService) {
				f.updateFn = func(ctx context.Context, e event.Event) (event.Event, error) {
					return event.Event{}, event.ErrDuplicate
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "invalid_argument",
			url:  "/api/event/" + validID,
			body: body,
			serviceSetup: func(f *fakeEventsService) {
				f.updateFn = func(ctx context.Context, e event.Event) (event.Event, error) {
					return event.Event{}, service.ErrInvalidArgument
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventsService{}

			if tt.serviceSetup != nil {
				tt.serviceSetup(fake)
			}

			h := handlers.NewEventsHandler(fake, time.Second)
			r := setupRouter(http.MethodPut, "/api/event/:id", h.UpdateEvent)

			req := httptest.NewRequest(http.MethodPut, tt.url, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteEventHandler(t *testing.T) {
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		serviceSetup   func(*fakeEventsService)
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "success",
			url:            "/api/event/" + validID,
			wantStatusCode: http.StatusNoContent,
		},
		{
			name: "not_found",
			url:  "/api/event/" + newUUID(),
			serviceSetup: func(f *fakeEventsService) {
				f.deleteFn = func(ctx context.Context, e event.Event) error {
					return event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
			wantCode:       "not_found",
		},
		{
			name: "has_registrations",
			url:  "/api/event/" + validID,
			serviceSetup: func(f *fakeEventsService) {
				f.deleteFn = func(ctx context.Context, e event.Event) error {
					return event.ErrHasActiveRegistrations
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "event_has_registrations",
		},
		{
			name: "service_error",
			url:  "/api/event/" + validID,
			serviceSetup: func(f *fakeEventsService) {
				f.deleteFn = func(ctx context.Context, e event.Event) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       "internal_error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventsService{}

			if tt.serviceSetup != nil {
				tt.serviceSetup(fake)
			}

			h := handlers.NewEventsHandler(fake, time.Second)
			r := setupRouter(http.MethodDelete, "/api/event/:id", h.DeleteEvent)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
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

func TestListEventsHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		check          func(t *testing.T, filter event.Filter, req page.Request)
		wantStatusCode int
	}{
		{
			name: "defaults",
			url:  "/api/event",
			check: func(t *testing.T, filter event.Filter, req page.Request) {
				if filter != (event.Filter{}) {
					t.Errorf("expected an empty filter, got %+v", filter)
				}
				if req.Number != 0 || req.Size != page.DefaultSize {
					t.Errorf("unexpected page request %+v", req)
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "all_filters",
			url:  "/api/event?title=women&description=talks&eventType=ONLINE&organizerId=7&from=01/03/2026%2000:00&to=31/03/2026%2023:59&page=2&size=5",
			check: func(t *testing.T, filter event.Filter, req page.Request) {
				if filter.Title == nil || *filter.Title != "women" {
					t.Errorf("title filter not set: %+v", filter.Title)
				}
				if filter.Description == nil || *filter.Description != "talks" {
					t.Errorf("description filter not set")
				}
				if filter.Type == nil || *filter.Type != event.TypeOnline {
					t.Errorf("type filter not set")
				}
				if filter.OrganizerID == nil || *filter.OrganizerID != 7 {
					t.Errorf("organizer filter not set")
				}
				if filter.From == nil || !filter.From.Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("from filter not parsed: %v", filter.From)
				}
				if filter.To == nil {
					t.Errorf("to filter not parsed")
				}
				if req.Number != 2 || req.Size != 5 {
					t.Errorf("unexpected page request %+v", req)
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "id_filter_canonicalized",
			url:  "/api/event?id=3F2504E0-4F89-41D3-9A0C-0305E82C3301",
			check: func(t *testing.T, filter event.Filter, req page.Request) {
				if filter.ID == nil || *filter.ID != "3f2504e0-4f89-41d3-9a0c-0305e82c3301" {
					t.Errorf("id filter not set: %v", filter.ID)
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "bad_id",
			url:            "/api/event?id=42",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_event_type",
			url:            "/api/event?eventType=HYBRID",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_organizer",
			url:            "/api/event?organizerId=seven",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "size_too_large",
			url:            "/api/event?size=1000",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_date",
			url:            "/api/event?from=2026-03-01",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			called := false

			fake := &fakeEventsService{
				findFn: func(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error) {
					called = true
					if tt.check != nil {
						tt.check(t, filter, req)
					}
					return page.Of([]event.Event{{ID: "id-1", Title: "Event 1"}}, req, 11), nil
				},
			}

			h := handlers.NewEventsHandler(fake, time.Second)
			r := setupRouter(http.MethodGet, "/api/event", h.ListEvents)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				if called {
					t.Fatalf("service should not be called on a bad query")
				}
				return
			}

			var body struct {
				Items      []map[string]any `json:"items"`
				Count      int              `json:"count"`
				Total      int              `json:"total"`
				TotalPages int              `json:"totalPages"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if body.Count != 1 || len(body.Items) != 1 || body.Total != 11 || body.TotalPages == 0 {
				t.Fatalf("unexpected page body: %s", w.Body.String())
			}
		})
	}
}
