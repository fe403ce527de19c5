package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ErrorEvent guarda erros reportados pelo dashboard (sem PII) e erros de
// backend com código Postgres, para triagem no backoffice.
type ErrorEvent struct {
	RequestID  *string
	Source     string
	Severity   string
	TenantID   *uuid.UUID
	ActorType  *string
	ActorID    *uuid.UUID
	HTTPMethod *string
	Path       *string
	ActionName *string
	Kind       *string
	Message    *string
	Stack      *string
	PGCode     *string
	PGMessage  *string
	Metadata   interface{}
}

func CreateErrorEvent(ctx context.Context, db DB, ev ErrorEvent) error {
	var meta []byte
	if ev.Metadata != nil {
		meta, _ = json.Marshal(ev.Metadata)
	}
	_, err := db.Exec(ctx, `
		INSERT INTO error_events (
			request_id, source, severity,
			tenant_id, actor_type, actor_id,
			http_method, path, action_name,
			kind, message, stack, pg_code, pg_message, metadata
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13, $14, $15
		)
	`,
		ev.RequestID, ev.Source, ev.Severity,
		ev.TenantID, ev.ActorType, ev.ActorID,
		ev.HTTPMethod, ev.Path, ev.ActionName,
		ev.Kind, ev.Message, ev.Stack, ev.PGCode, ev.PGMessage, meta,
	)
	return err
}
