package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const customerColumns = `cod_user, dni, nombre, apellido, email, celular, calle, barrio,
	numero_suministro, numero_medidor, fec_add, fec_validacion`

// updatableColumns maps the public field tokens to local-tier columns. It
// is the single whitelist between user input and SQL identifiers.
var updatableColumns = map[string]string{
	"CALLE":   "calle",
	"BARRIO":  "barrio",
	"CELULAR": "celular",
	"EMAIL":   "email",
}

// Repository reads customers from two database tiers. The source handle is
// the company system and is never written; the local handle owns the
// materialized copies.
type Repository struct {
	source *sql.DB
	local  *sql.DB
}

func NewRepository(source, local *sql.DB) *Repository {
	if local == nil {
		panic("customers: local database handle required")
	}
	return &Repository{source: source, local: local}
}

func scanCustomer(row *sql.Row) (*Customer, error) {
	var r customerRow
	err := row.Scan(
		&r.codUser,
		&r.dni,
		&r.firstName,
		&r.lastName,
		&r.email,
		&r.phone,
		&r.street,
		&r.neighborhood,
		&r.supplyNumber,
		&r.meterNumber,
		&r.addedAt,
		&r.validatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("customers: select failed: %w", err)
	}
	return r.toCustomer(), nil
}

// GetLocal fetches a customer from the writable tier.
func (r *Repository) GetLocal(ctx context.Context, dni string) (*Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM ws_users WHERE dni = $1`, customerColumns)
	return scanCustomer(r.local.QueryRowContext(ctx, query, dni))
}

// GetSource fetches a customer from the read-only source tier.
func (r *Repository) GetSource(ctx context.Context, dni string) (*Customer, error) {
	if r.source == nil {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM ws_users WHERE dni = $1`, customerColumns)
	return scanCustomer(r.source.QueryRowContext(ctx, query, dni))
}

// InsertLocal materializes a source record in the writable tier. The insert
// is idempotent: a concurrent materialization of the same DNI is a no-op,
// never an error.
func (r *Repository) InsertLocal(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO ws_users (cod_user, dni, nombre, apellido, email, celular, calle, barrio,
			numero_suministro, numero_medidor, fec_add, fec_validacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (dni) DO NOTHING
	`
	_, err := r.local.ExecContext(ctx, query,
		c.CodUser,
		c.DNI,
		nullable(c.FirstName),
		nullable(c.LastName),
		nullable(c.Email),
		nullable(c.Phone),
		nullable(c.Street),
		nullable(c.Neighborhood),
		nullable(c.SupplyNumber),
		nullable(c.MeterNumber),
		nullTime(c.AddedAt),
		nullTime(c.ValidatedAt),
	)
	if err != nil {
		return fmt.Errorf("customers: insert failed: %w", err)
	}
	return nil
}

// UpdateLocal applies whitelisted field changes to a local record. The
// caller validates tokens; an unknown one here is a programming error.
func (r *Repository) UpdateLocal(ctx context.Context, dni string, fields map[string]string) error {
	set := ""
	args := make([]any, 0, len(fields)+1)
	for token, value := range fields {
		column, ok := updatableColumns[token]
		if !ok {
			return ErrInvalidField
		}
		if set != "" {
			set += ", "
		}
		args = append(args, value)
		set += fmt.Sprintf("%s = $%d", column, len(args))
	}
	if set == "" {
		return ErrNoFields
	}
	args = append(args, dni)
	query := fmt.Sprintf(`UPDATE ws_users SET %s WHERE dni = $%d`, set, len(args))

	res, err := r.local.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("customers: update failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
