package audit

import (
	"context"
	"time"

	id "viewergate/pkg/domain"
)

// EventCategory classifies audit events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle and verification facts.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers failed verification attempts and camera denials.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine session activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	AccountID id.AccountID  `json:"account_id"`
	Action    string        `json:"action"`
	Subject   string        `json:"subject,omitempty"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Device    string        `json:"device,omitempty"`
}

type AuditEvent string

const (
	EventRegistrationCompleted AuditEvent = "registration_completed"
	EventVerificationAccepted  AuditEvent = "verification_accepted"
	EventVerificationRejected  AuditEvent = "verification_rejected"
	EventCapturePermission     AuditEvent = "capture_permission_denied"
	EventCaptureFailed         AuditEvent = "capture_failed"
	EventPasswordChanged       AuditEvent = "password_changed"
	EventDeletionRequested     AuditEvent = "deletion_requested"
	EventDeletionCancelled     AuditEvent = "deletion_cancelled"
	EventProfileWriteFailed    AuditEvent = "profile_write_failed"
	EventSessionStarted        AuditEvent = "session_started"
	EventSessionEnded          AuditEvent = "session_ended"
	EventRateLimitExceeded     AuditEvent = "rate_limit_exceeded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistrationCompleted: CategoryCompliance,
	EventVerificationAccepted:  CategoryCompliance,
	EventDeletionRequested:     CategoryCompliance,
	EventDeletionCancelled:     CategoryCompliance,

	EventVerificationRejected: CategorySecurity,
	EventCapturePermission:    CategorySecurity,
	EventPasswordChanged:      CategorySecurity,
	EventProfileWriteFailed:   CategorySecurity,
	EventRateLimitExceeded:    CategorySecurity,

	EventCaptureFailed:   CategoryOperations,
	EventSessionStarted:  CategoryOperations,
	EventSessionEnded:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events and lists them per account.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]Event, error)
}

// Sink receives a copy of every persisted event (for example a Kafka topic).
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the narrow interface services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
