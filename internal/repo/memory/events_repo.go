package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/google/uuid"
)

// EventsRepo keeps events in a map and enforces the uniqueness key the way the
// SQL stores' unique index does. A RegistrationsRepo built on it shares its
// lock, which stands in for the registrations foreign key.
type EventsRepo struct {
	mu    sync.RWMutex
	items map[string]event.Event
	keys  map[event.Key]string
	// registrations per event id, maintained by the linked RegistrationsRepo
	refs map[string]int
}

func NewEventsRepo() *EventsRepo {
	return &EventsRepo{
		items: make(map[string]event.Event),
		keys:  make(map[event.Key]string),
		refs:  make(map[string]int),
	}
}

func (r *EventsRepo) Insert(ctx context.Context, e event.Event) (event.Event, error) {
	k := normalizeKey(e.Key())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.keys[k]; taken {
		return event.Event{}, event.ErrDuplicate
	}

	e.ID = uuid.NewString()
	r.items[e.ID] = e
	r.keys[k] = e.ID

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	return e, nil
}

// Save rewrites the mutable fields only.
func (r *EventsRepo) Save(ctx context.Context, e event.Event) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[e.ID]

	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	oldKey := normalizeKey(current.Key())

	current.Title = e.Title
	current.Description = e.Description
	current.StartDate = e.StartDate
	current.EndDate = e.EndDate

	newKey := normalizeKey(current.Key())

	if owner, taken := r.keys[newKey]; taken && owner != current.ID {
		return event.Event{}, event.ErrDuplicate
	}

	delete(r.keys, oldKey)
	r.keys[newKey] = current.ID
	r.items[current.ID] = current

	return current, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]

	if !ok {
		return event.ErrNotFound
	}

	if r.refs[id] > 0 {
		return event.ErrHasActiveRegistrations
	}

	delete(r.keys, normalizeKey(e.Key()))
	delete(r.items, id)

	return nil
}

func (r *EventsRepo) Find(ctx context.Context, filter event.Filter, req page.Request) (page.Page[event.Event], error) {
	r.mu.RLock()
	matched := make([]event.Event, 0, len(r.items))

	for _, e := range r.items {
		if matchEvent(e, filter) {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()

	// same ordering as the SQL stores
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartDate.Equal(matched[j].StartDate) {
			return matched[i].StartDate.Before(matched[j].StartDate)
		}
		return matched[i].ID < matched[j].ID
	})

	return page.Of(page.Window(matched, req), req, len(matched)), nil
}

func (r *EventsRepo) FindExisting(ctx context.Context, key event.Key) (event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.keys[normalizeKey(key)]

	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	return r.items[id], nil
}

func (r *EventsRepo) Ping(ctx context.Context) error {
	return nil
}

// time.Time carries a location pointer, so equal instants can differ as map keys.
func normalizeKey(k event.Key) event.Key {
	k.StartDate = k.StartDate.UTC()
	k.EndDate = k.EndDate.UTC()

	return k
}

func matchEvent(e event.Event, f event.Filter) bool {
	if f.ID != nil && e.ID != *f.ID {
		return false
	}

	if f.Title != nil && !containsFold(e.Title, *f.Title) {
		return false
	}

	if f.Description != nil && !containsFold(e.Description, *f.Description) {
		return false
	}

	if f.Type != nil && e.Type != *f.Type {
		return false
	}

	if f.OrganizerID != nil && e.OrganizerID != *f.OrganizerID {
		return false
	}

	if f.From != nil && e.StartDate.Before(*f.From) {
		return false
	}

	if f.To != nil && e.StartDate.After(*f.To) {
		return false
	}

	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
