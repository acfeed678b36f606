package models

import "time"

// Organizer is an organizer account as listed for moderation.
type Organizer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt Time   `json:"created_at"`
	UpdatedAt Time   `json:"updated_at"`
}

// EntityID implements listmut.Entity.
func (o Organizer) EntityID() string { return o.ID }

// EntityStatus implements listmut.Entity.
func (o Organizer) EntityStatus() Status { return o.Status }

// WithStatus returns a copy with status, reason and update time replaced.
func (o Organizer) WithStatus(s Status, at time.Time) Organizer {
	o.Status = s
	o.Reason = ModerationReason(s)
	o.UpdatedAt = NewTime(at)
	return o
}

// ModerationReason is the reason text sent alongside an organizer decision.
func ModerationReason(s Status) string {
	switch s {
	case StatusApproved:
		return "Approved by administrator"
	case StatusRejected:
		return "Rejected by administrator"
	}
	return ""
}

// OrganizerUpdate is the body for PUT /admin/organizers/{id}.
type OrganizerUpdate struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}
