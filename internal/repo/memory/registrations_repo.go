package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/meetups/internal/domain/page"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/google/uuid"
)

type participantKey struct {
	eventID       string
	participantID int64
}

// RegistrationsRepo checks event references against events under the events
// lock, so an insert and an event delete can never interleave.
type RegistrationsRepo struct {
	mu     *sync.RWMutex
	events *EventsRepo
	items  map[string]registration.Registration
	keys   map[participantKey]string
}

func NewRegistrationsRepo(events *EventsRepo) *RegistrationsRepo {
	return &RegistrationsRepo{
		mu:     &events.mu,
		events: events,
		items:  make(map[string]registration.Registration),
		keys:   make(map[participantKey]string),
	}
}

func (r *RegistrationsRepo) Insert(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	k := participantKey{eventID: reg.EventID, participantID: reg.ParticipantID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events.items[reg.EventID]; !ok {
		return registration.Registration{}, registration.ErrInvalidEventReference
	}

	if _, taken := r.keys[k]; taken {
		return registration.Registration{}, registration.ErrDuplicate
	}

	reg.ID = uuid.NewString()
	r.items[reg.ID] = reg
	r.keys[k] = reg.ID
	r.events.refs[reg.EventID]++

	return reg, nil
}

func (r *RegistrationsRepo) GetByID(ctx context.Context, id string) (registration.Registration, error) {
	r.mu.RLock()
	reg, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	return reg, nil
}

// Save only carries the name tag over.
func (r *RegistrationsRepo) Save(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[reg.ID]

	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	current.NameTag = reg.NameTag
	r.items[current.ID] = current

	return current, nil
}

func (r *RegistrationsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.items[id]

	if !ok {
		return registration.ErrNotFound
	}

	delete(r.keys, participantKey{eventID: reg.EventID, participantID: reg.ParticipantID})
	delete(r.items, id)

	r.events.refs[reg.EventID]--
	if r.events.refs[reg.EventID] <= 0 {
		delete(r.events.refs, reg.EventID)
	}

	return nil
}

func (r *RegistrationsRepo) Find(ctx context.Context, filter registration.Filter, req page.Request) (page.Page[registration.Registration], error) {
	r.mu.RLock()
	matched := make([]registration.Registration, 0, len(r.items))

	for _, reg := range r.items {
		if matchRegistration(reg, filter) {
			matched = append(matched, reg)
		}
	}
	r.mu.RUnlock()

	sortRegistrations(matched)

	return page.Of(page.Window(matched, req), req, len(matched)), nil
}

func (r *RegistrationsRepo) FindExistingForEvent(ctx context.Context, eventID string, participantID int64) (registration.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.keys[participantKey{eventID: eventID, participantID: participantID}]

	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	return r.items[id], nil
}

func (r *RegistrationsRepo) ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error) {
	r.mu.RLock()
	regs := make([]registration.Registration, 0)

	for _, reg := range r.items {
		if reg.EventID == eventID {
			regs = append(regs, reg)
		}
	}
	r.mu.RUnlock()

	sortRegistrations(regs)

	return regs, nil
}

func matchRegistration(reg registration.Registration, f registration.Filter) bool {
	if f.ID != nil && reg.ID != *f.ID {
		return false
	}

	if f.NameTag != nil && !containsFold(reg.NameTag, *f.NameTag) {
		return false
	}

	if f.EventID != nil && reg.EventID != *f.EventID {
		return false
	}

	if f.ParticipantID != nil && reg.ParticipantID != *f.ParticipantID {
		return false
	}

	return true
}

func sortRegistrations(regs []registration.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].DateOfRegistration.Equal(regs[j].DateOfRegistration) {
			return regs[i].DateOfRegistration.Before(regs[j].DateOfRegistration)
		}
		return regs[i].ID < regs[j].ID
	})
}
