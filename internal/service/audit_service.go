package service

import (
	"context"
	"encoding/json"
	"fmt"

	"investx/internal/apperr"
	"investx/internal/logger"
	"investx/internal/models"
)

// AuditEntry describes one privileged or security-relevant action.
type AuditEntry struct {
	ActorKind  string
	ActorID    uint
	Action     string
	Resource   string
	ResourceID interface{}
	Meta       RequestMeta
	Metadata   map[string]interface{}
}

type AuditService struct {
	repo AuditStore
}

func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Record writes the entry. Failures are logged and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, e AuditEntry) {
	if s == nil || s.repo == nil {
		return
	}
	row := &models.AuditLog{
		ActorKind: e.ActorKind,
		Action:    e.Action,
		Resource:  e.Resource,
		IP:        e.Meta.IP,
		UserAgent: e.Meta.UserAgent,
	}
	if e.ActorID != 0 {
		id := e.ActorID
		row.ActorID = &id
	}
	if e.ResourceID != nil {
		row.ResourceID = fmt.Sprint(e.ResourceID)
	}
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			row.Metadata = string(b)
		}
	}
	if err := s.repo.Create(ctx, row); err != nil {
		logger.Error().Err(err).Str("action", e.Action).Msg("audit log write failed")
	}
}

func (s *AuditService) List(ctx context.Context, action string, page, limit int) (*Page[models.AuditLog], error) {
	list, total, err := s.repo.List(ctx, action, page, limit)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.AuditLog]{Items: list, Total: total, Page: page, Limit: limit}, nil
}
