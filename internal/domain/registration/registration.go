package registration

import (
	"errors"
	"time"

	"github.com/geocoder89/meetups/internal/utils"
)

type Registration struct {
	ID                 string
	EventID            string
	NameTag            string
	DateOfRegistration time.Time
	ParticipantID      int64
}

type Filter struct {
	ID            *string
	NameTag       *string
	EventID       *string
	ParticipantID *int64
}

// if the participant is already registered for the event.
var ErrDuplicate = errors.New("registration already created")

// the referenced event does not exist
var ErrInvalidEventReference = errors.New("event reference does not resolve")
var ErrNotFound = errors.New("registration not found")

type CreateRegistrationRequest struct {
	EventID       string `json:"eventId" binding:"required,uuid"`
	NameTag       string `json:"nameTag" binding:"required,max=120"`
	ParticipantID int64  `json:"participantId" binding:"required,min=1"`
}

// only the name tag may change after sign-up
type UpdateRegistrationRequest struct {
	NameTag string `json:"nameTag" binding:"required,max=120"`
}

type Response struct {
	ID                 string         `json:"id"`
	NameTag            string         `json:"nameTag"`
	DateOfRegistration utils.DateTime `json:"dateOfRegistration"`
	EventID            string         `json:"eventId"`
	ParticipantID      int64          `json:"participantId"`
}

// A factory to build a Registration from the incoming DTO

func NewFromCreateRequest(req CreateRegistrationRequest) Registration {
	return Registration{
		EventID:       req.EventID,
		NameTag:       req.NameTag,
		ParticipantID: req.ParticipantID,
	}
}

func NewResponse(r Registration) Response {
	return Response{
		ID:                 r.ID,
		NameTag:            r.NameTag,
		DateOfRegistration: utils.NewDateTime(r.DateOfRegistration),
		EventID:            r.EventID,
		ParticipantID:      r.ParticipantID,
	}
}
