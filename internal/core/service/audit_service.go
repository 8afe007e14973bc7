package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/securepass/vault-api/internal/core/domain"
	"github.com/securepass/vault-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that persists auth events.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single audit event.
func (s *auditService) Record(ctx context.Context, in ports.AuditInput) error {
	event := &domain.AuthEvent{
		Username:  in.Username,
		Action:    in.Action,
		Outcome:   in.Outcome,
		RemoteIP:  in.RemoteIP,
		Timestamp: in.Timestamp,
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		return err
	}

	s.log.Debug().
		Str("username", in.Username).
		Str("action", in.Action).
		Str("outcome", in.Outcome).
		Msg("audit event recorded")
	return nil
}
