package models

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleAttendee:
		return true
	}
	return false
}

// Status is the moderation state of an organizer account or an event.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further moderation transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// User is the identity held in a session.
// Status is only meaningful for organizers.
type User struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	Status   Status `json:"status,omitempty"`
}

// EffectiveStatus returns the moderation status, or "" for roles that have none.
func (u *User) EffectiveStatus() Status {
	if u == nil || u.Role != RoleOrganizer {
		return ""
	}
	return u.Status
}

// UserPublic is a user record as the API returns it.
type UserPublic struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
	Status    Status `json:"status,omitempty"`
	CreatedAt Time   `json:"created_at"`
}
