package audit

import (
	"time"

	id "agegate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance,
	// such as account creation against an age-restricted resource.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics: credential failures, lockouts, rejected tokens.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, such as routine access grants.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    id.UserID
	Username  string
	Action    Action
	Reason    string
	RequestID string
	Device    string
}

// Action names an auditable account event.
type Action string

const (
	ActionUserRegistered Action = "user_registered"
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
	ActionAccountLocked  Action = "account_locked"
	ActionAccessGranted  Action = "access_granted"
	ActionAccessDenied   Action = "access_denied"
)

var actionCategories = map[Action]EventCategory{
	ActionUserRegistered: CategoryCompliance,
	ActionLoginSucceeded: CategoryOperations,
	ActionLoginFailed:    CategorySecurity,
	ActionAccountLocked:  CategorySecurity,
	ActionAccessGranted:  CategoryOperations,
	ActionAccessDenied:   CategorySecurity,
}

// Category derives the event category from the action. Unknown actions are
// treated as security events so nothing silently drops to a weaker retention
// class.
func (a Action) Category() EventCategory {
	if category, ok := actionCategories[a]; ok {
		return category
	}
	return CategorySecurity
}
