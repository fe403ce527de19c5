package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID        uuid.UUID
	Nome      string
	CreatedAt time.Time
}

func CreateTenant(ctx context.Context, db DB, nome string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `INSERT INTO tenants (nome) VALUES ($1) RETURNING id`, nome).Scan(&id)
	return id, err
}

func TenantByID(ctx context.Context, db DB, id uuid.UUID) (*Tenant, error) {
	var t Tenant
	err := db.QueryRow(ctx, `SELECT id, nome, created_at FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Nome, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func Tenants(ctx context.Context, db DB) ([]Tenant, error) {
	rows, err := db.Query(ctx, `SELECT id, nome, created_at FROM tenants ORDER BY nome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Nome, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
