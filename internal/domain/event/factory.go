package event

import "github.com/geocoder89/meetups/internal/utils"

// NewFromCreateRequest leaves ID and CreationDate unset; the service and store fill them.
func NewFromCreateRequest(req CreateEventRequest) Event {
	return Event{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate.Time(),
		EndDate:     req.EndDate.Time(),
		Type:        req.EventType,
		OrganizerID: req.OrganizerID,
	}
}

func (e Event) WithUpdate(req UpdateEventRequest) Event {
	e.Title = req.Title
	e.Description = req.Description
	e.StartDate = req.StartDate.Time()
	e.EndDate = req.EndDate.Time()

	return e
}

func NewResponse(e Event) Response {
	return Response{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		CreationDate: utils.NewDateTime(e.CreationDate),
		StartDate:    utils.NewDateTime(e.StartDate),
		EndDate:      utils.NewDateTime(e.EndDate),
		EventType:    e.Type,
		OrganizerID:  e.OrganizerID,
	}
}
