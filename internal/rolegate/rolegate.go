// Package rolegate maps a user to the routes and actions it may use.
// Every function is pure and total: nil users and unknown roles are handled.
package rolegate

import (
	"fmt"

	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/session"
)

// Navigation targets.
const (
	RoutePublicHome      = "/"
	RouteLogin           = "/login"
	RouteAdminHome       = "/admin"
	RouteOrganizerEvents = "/event"
)

// Action is a gated user affordance.
type Action string

const (
	ActionCreateEvent   Action = "create_event"
	ActionApproveEntity Action = "approve_entity"
	ActionBookEvent     Action = "book_event"
)

// Denial explains why an action is not allowed.
type Denial string

const (
	// DenialUnauthenticated: nobody is logged in.
	DenialUnauthenticated Denial = "unauthenticated"
	// DenialForbiddenRole: logged in, but the role never allows the action.
	DenialForbiddenRole Denial = "forbidden_role"
	// DenialNotApproved: an organizer whose account is not approved yet.
	DenialNotApproved Denial = "not_approved"
	// DenialUnknownAction: the action is not recognised.
	DenialUnknownAction Denial = "unknown_action"
)

// Decision is the outcome of CanPerform.
type Decision struct {
	Allowed bool
	Denial  Denial
}

// Authenticated reports whether the user is logged in, whatever the outcome.
func (d Decision) Authenticated() bool {
	return d.Denial != DenialUnauthenticated
}

// Message is the explanatory text shown for a denial.
func (d Decision) Message() string {
	switch d.Denial {
	case "":
		return ""
	case DenialUnauthenticated:
		return "Please log in to continue."
	case DenialNotApproved:
		return "Your organizer account is awaiting admin approval."
	case DenialForbiddenRole:
		return "You do not have permission to perform this action."
	}
	return "This action is not available."
}

func allow() Decision { return Decision{Allowed: true} }
func deny(d Denial) Decision { return Decision{Denial: d} }

// IsAuthenticated reports whether s is a usable session.
func IsAuthenticated(s *session.Session) bool {
	return s != nil && s.Token != ""
}

// LandingRouteFor returns where a user lands after login.
func LandingRouteFor(u *models.User) string {
	if u == nil {
		return RoutePublicHome
	}
	switch u.Role {
	case models.RoleAdmin:
		return RouteAdminHome
	case models.RoleOrganizer:
		return RouteOrganizerEvents
	}
	return RoutePublicHome
}

// CanPerform decides whether u may perform action.
func CanPerform(u *models.User, action Action) Decision {
	if u == nil {
		return deny(DenialUnauthenticated)
	}
	switch action {
	case ActionCreateEvent:
		switch u.Role {
		case models.RoleAdmin:
			return allow()
		case models.RoleOrganizer:
			if u.Status != models.StatusApproved {
				return deny(DenialNotApproved)
			}
			return allow()
		}
		return deny(DenialForbiddenRole)
	case ActionApproveEntity:
		if u.Role == models.RoleAdmin {
			return allow()
		}
		return deny(DenialForbiddenRole)
	case ActionBookEvent:
		if u.Role == models.RoleAttendee || u.Role == models.RoleAdmin {
			return allow()
		}
		return deny(DenialForbiddenRole)
	}
	return deny(DenialUnknownAction)
}

// CanPerformSession is CanPerform for a possibly absent session.
func CanPerformSession(s *session.Session, action Action) Decision {
	if !IsAuthenticated(s) {
		return deny(DenialUnauthenticated)
	}
	return CanPerform(&s.User, action)
}

// TransitionError reports an illegal moderation transition.
type TransitionError struct {
	From, To models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move %q record to %q", e.From, e.To)
}

// CheckTransition allows only pending→approved and pending→rejected.
func CheckTransition(from, to models.Status) error {
	if from == models.StatusPending && to.Terminal() {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// DeniedError is returned when the gate refuses an action.
type DeniedError struct {
	Action   Action
	Decision Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Action, e.Decision.Denial)
}

// Require returns a *DeniedError unless the session may perform action.
func Require(s *session.Session, action Action) error {
	d := CanPerformSession(s, action)
	if d.Allowed {
		return nil
	}
	return &DeniedError{Action: action, Decision: d}
}
