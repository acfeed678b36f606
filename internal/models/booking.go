package models

// Booking is the body for POST /bookings/book.
type Booking struct {
	UserEmail string `json:"user_email"`
	EventID   string `json:"event_id"`
}

// BookingResult is the API answer to a booking.
type BookingResult struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// UserDetails is the profile record returned by GET /events/users/{id}.
type UserDetails struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status,omitempty"`
	BookedEvents []Booking `json:"booked_events"`
}
