package complaints

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const complaintJoinColumns = `c.id, c.cod_user, c.descripcion, c.estado, c.fecha_reclamo, c.fecha_cierre,
	u.nombre, u.apellido, u.dni, u.calle, u.barrio`

// Repository stores complaints in the local writable tier. Every read joins
// the customer row so callers never need a second query for display data.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("complaints: database handle required")
	}
	return &Repository{db: db}
}

// Insert files a new pending complaint and returns its generated ID.
func (r *Repository) Insert(ctx context.Context, codUser int64, description string) (int64, error) {
	query := `
		INSERT INTO complaints (cod_user, descripcion, estado)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, codUser, description, string(StatusPending)).Scan(&id); err != nil {
		return 0, fmt.Errorf("complaints: insert failed: %w", err)
	}
	return id, nil
}

func scanJoined(scan func(dest ...any) error) (*Complaint, error) {
	var (
		c            Complaint
		closedAt     sql.NullTime
		firstName    sql.NullString
		lastName     sql.NullString
		dni          sql.NullString
		street       sql.NullString
		neighborhood sql.NullString
	)
	err := scan(
		&c.ID,
		&c.CodUser,
		&c.Description,
		&c.Status,
		&c.CreatedAt,
		&closedAt,
		&firstName,
		&lastName,
		&dni,
		&street,
		&neighborhood,
	)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		c.ClosedAt = &t
	}
	name := firstName.String
	if lastName.String != "" {
		if name != "" {
			name += " "
		}
		name += lastName.String
	}
	c.CustomerName = name
	c.CustomerDNI = dni.String
	c.Street = street.String
	c.Neighborhood = neighborhood.String
	return &c, nil
}

// ByID fetches one complaint with its customer summary.
func (r *Repository) ByID(ctx context.Context, id int64) (*Complaint, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM complaints c
		JOIN ws_users u ON u.cod_user = c.cod_user
		WHERE c.id = $1
	`, complaintJoinColumns)
	c, err := scanJoined(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("complaints: select failed: %w", err)
	}
	return c, nil
}

// ByCustomerDNI lists a customer's most recent complaints, newest first.
func (r *Repository) ByCustomerDNI(ctx context.Context, dni string, limit int) ([]*Complaint, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM complaints c
		JOIN ws_users u ON u.cod_user = c.cod_user
		WHERE u.dni = $1
		ORDER BY c.fecha_reclamo DESC
	`, complaintJoinColumns)
	args := []any{dni}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// ListAll returns every complaint, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]*Complaint, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM complaints c
		JOIN ws_users u ON u.cod_user = c.cod_user
		ORDER BY c.fecha_reclamo DESC
	`, complaintJoinColumns)
	return r.list(ctx, query)
}

// ListPending returns complaints still awaiting attention, newest first.
func (r *Repository) ListPending(ctx context.Context) ([]*Complaint, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM complaints c
		JOIN ws_users u ON u.cod_user = c.cod_user
		WHERE c.estado = $1
		ORDER BY c.fecha_reclamo DESC
	`, complaintJoinColumns)
	return r.list(ctx, query, string(StatusPending))
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*Complaint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("complaints: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Complaint
	for rows.Next() {
		c, err := scanJoined(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("complaints: scan failed: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("complaints: list failed: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a complaint to a new state. The closure timestamp is
// tied to Resuelto: entering it stamps now, leaving it clears the stamp.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status, now time.Time) error {
	query := `
		UPDATE complaints
		SET estado = $1,
		    fecha_cierre = CASE WHEN $1 = 'Resuelto' THEN $2 ELSE NULL END
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, string(status), now, id)
	if err != nil {
		return fmt.Errorf("complaints: status update failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelIfPending marks a complaint cancelled by its owner, but only while
// it is still Pendiente.
func (r *Repository) CancelIfPending(ctx context.Context, id int64) error {
	query := `
		UPDATE complaints
		SET estado = $1
		WHERE id = $2 AND estado = $3
	`
	res, err := r.db.ExecContext(ctx, query, string(StatusCancelled), id, string(StatusPending))
	if err != nil {
		return fmt.Errorf("complaints: cancel failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complaints: cancel failed: %w", err)
	}
	if n > 0 {
		return nil
	}

	// The row either does not exist or already left Pendiente.
	if _, err := r.ByID(ctx, id); err != nil {
		return err
	}
	return ErrNotCancellable
}
