package models

import "time"

// Event is an event record echoed from the API.
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Date           Time    `json:"date"`
	Location       string  `json:"location"`
	Price          float64 `json:"price"`
	OrganizerEmail string  `json:"organizer_email"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
	Status         Status  `json:"status"`
	UpdatedAt      Time    `json:"updated_at"`
}

// SoldOut reports whether no seats remain.
func (e Event) SoldOut() bool {
	return e.AvailableSeats <= 0
}

// EntityID implements listmut.Entity.
func (e Event) EntityID() string { return e.ID }

// EntityStatus implements listmut.Entity.
func (e Event) EntityStatus() Status { return e.Status }

// WithStatus returns a copy with status and update time replaced.
func (e Event) WithStatus(s Status, at time.Time) Event {
	e.Status = s
	e.UpdatedAt = NewTime(at)
	return e
}

// CreateEventRequest is the body for POST /events/create.
type CreateEventRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Date           Time    `json:"date"`
	Location       string  `json:"location"`
	Price          float64 `json:"price"`
	OrganizerEmail string  `json:"organizer_email"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
}

// CreateEventResponse is the API answer to an event submission.
type CreateEventResponse struct {
	Message string `json:"message"`
	EventID string `json:"event_id"`
}
