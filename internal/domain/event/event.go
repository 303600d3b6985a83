package event

import (
	"errors"
	"time"

	"github.com/geocoder89/meetups/internal/utils"
)

type Type string

const (
	TypeFaceToFace Type = "FACE_TO_FACE"
	TypeOnline     Type = "ONLINE"
)

func (t Type) IsValid() bool {
	return t == TypeFaceToFace || t == TypeOnline
}

type Event struct {
	ID           string
	Title        string
	Description  string
	CreationDate time.Time
	StartDate    time.Time
	EndDate      time.Time
	Type         Type
	OrganizerID  int64
}

// Key is the tuple no two events may share.
type Key struct {
	Title       string
	StartDate   time.Time
	EndDate     time.Time
	OrganizerID int64
}

func (e Event) Key() Key {
	return Key{
		Title:       e.Title,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		OrganizerID: e.OrganizerID,
	}
}

// with pointers if optional, it will be nil.
// strings match as case-insensitive substrings, From/To bound the start date.
type Filter struct {
	ID          *string
	Title       *string
	Description *string
	Type        *Type
	OrganizerID *int64
	From        *time.Time
	To          *time.Time
}

var (
	ErrNotFound               = errors.New("event not found")
	ErrDuplicate              = errors.New("event already created")
	ErrHasActiveRegistrations = errors.New("event has active registrations")
)

type CreateEventRequest struct {
	Title       string         `json:"title" binding:"required,max=120"`
	Description string         `json:"description" binding:"required,max=1000"`
	StartDate   utils.DateTime `json:"startDate" binding:"required"`
	EndDate     utils.DateTime `json:"endDate" binding:"required,gtfield=StartDate"`
	EventType   Type           `json:"eventType" binding:"required,oneof=FACE_TO_FACE ONLINE"`
	OrganizerID int64          `json:"organizerId" binding:"required,min=1"`
}

// a full update payload: type and organizer are fixed once the event exists.
type UpdateEventRequest struct {
	Title       string         `json:"title" binding:"required,max=120"`
	Description string         `json:"description" binding:"required,max=1000"`
	StartDate   utils.DateTime `json:"startDate" binding:"required"`
	EndDate     utils.DateTime `json:"endDate" binding:"required,gtfield=StartDate"`
}

type Response struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	CreationDate utils.DateTime `json:"creationDate"`
	StartDate    utils.DateTime `json:"startDate"`
	EndDate      utils.DateTime `json:"endDate"`
	EventType    Type           `json:"eventType"`
	OrganizerID  int64          `json:"organizerId"`
}
