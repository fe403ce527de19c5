package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// AuditEvent é a trilha de conformidade de toda mutação. Os snapshots before e
// after vão em claro (já decifrados): a trilha é a fonte legível para
// revisão, então decifra-se antes de gravar, nunca na leitura.
type AuditEvent struct {
	Action       string
	ActorType    string
	ActorID      *uuid.UUID
	TenantID     *uuid.UUID
	RequestID    string
	IP           string
	UserAgent    string
	ResourceType *string
	ResourceID   *uuid.UUID
	ExameID      *uuid.UUID
	Severity     *string // INFO|WARN|ERROR
	Before       interface{}
	After        interface{}
	Metadata     interface{}
}

func CreateAuditEvent(ctx context.Context, db DB, ev AuditEvent) error {
	marshal := func(v interface{}) ([]byte, error) {
		if v == nil {
			return nil, nil
		}
		return json.Marshal(v)
	}
	before, err := marshal(ev.Before)
	if err != nil {
		return err
	}
	after, err := marshal(ev.After)
	if err != nil {
		return err
	}
	meta, err := marshal(ev.Metadata)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO audit_events (
			action, actor_type, actor_id, tenant_id, request_id, ip, user_agent,
			resource_type, resource_id, exame_id, severity, before, after, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14
		)
	`,
		ev.Action, ev.ActorType, ev.ActorID, ev.TenantID, nullIfEmptyText(ev.RequestID),
		nullIfEmptyText(ev.IP), nullIfEmptyText(ev.UserAgent),
		ev.ResourceType, ev.ResourceID, ev.ExameID, ev.Severity, before, after, meta,
	)
	return err
}
