package ports

import (
	"context"
	"time"

	"github.com/securepass/vault-api/internal/core/domain"
)

// AuditInput is the DTO passed from the transport layer to the audit pipeline.
type AuditInput struct {
	Username  string
	Action    string
	Outcome   string
	RemoteIP  string
	Timestamp time.Time
}

// AuditSink accepts audit events for asynchronous processing. Enqueue must
// not block the caller beyond channel backpressure.
type AuditSink interface {
	Enqueue(event AuditInput)
}

// AuditService persists audit events.
type AuditService interface {
	Record(ctx context.Context, event AuditInput) error
}

// AuditRepository stores auth events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
