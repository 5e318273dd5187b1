package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the source system has no invoice for a DNI.
var ErrNotFound = errors.New("invoices: invoice not found")

// Repository reads invoices from the read-only source tier.
type Repository struct {
	source *sql.DB
}

func NewRepository(source *sql.DB) *Repository {
	if source == nil {
		panic("invoices: source database handle required")
	}
	return &Repository{source: source}
}

// ByDNI fetches the most recent invoice for a customer.
func (r *Repository) ByDNI(ctx context.Context, dni string) (*Invoice, error) {
	query := `
		SELECT f.apellido, f.nombre, f.dni, f.codigo_suministro, f.numero_comprobante,
		       f.fecha_emision, f.estado_factura, f.total_factura, f.vencimiento_factura,
		       f.calle, f.barrio, f.observacion_postal, f.numero_medidor, f.periodo, f.consumo
		FROM ws_facturas f
		WHERE f.dni = $1
		ORDER BY f.fecha_emision DESC
		LIMIT 1
	`
	var (
		inv        Invoice
		lastName   sql.NullString
		firstName  sql.NullString
		supply     sql.NullString
		receipt    sql.NullString
		issuedAt   sql.NullTime
		statusFlag sql.NullString
		total      sql.NullFloat64
		dueAt      sql.NullTime
		street     sql.NullString
		barrio     sql.NullString
		postal     sql.NullString
		meter      sql.NullString
		period     sql.NullString
		consumo    sql.NullFloat64
	)
	err := r.source.QueryRowContext(ctx, query, dni).Scan(
		&lastName, &firstName, &inv.DNI, &supply, &receipt,
		&issuedAt, &statusFlag, &total, &dueAt,
		&street, &barrio, &postal, &meter, &period, &consumo,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("invoices: select failed: %w", err)
	}

	// The source flags paid invoices "S" and open ones "N"; anything else
	// the system simply does not know.
	switch statusFlag.String {
	case "S":
		inv.Paid, inv.StatusKnown = true, true
	case "N":
		inv.Paid, inv.StatusKnown = false, true
	}

	name := lastName.String
	if firstName.String != "" {
		if name != "" {
			name += " "
		}
		name += firstName.String
	}
	inv.CustomerName = name
	inv.SupplyCode = supply.String
	inv.ReceiptNumber = receipt.String
	if issuedAt.Valid {
		t := issuedAt.Time
		inv.IssuedAt = &t
	}
	inv.Total = total.Float64
	if dueAt.Valid {
		t := dueAt.Time
		inv.DueAt = &t
	}
	inv.Street = street.String
	inv.Neighborhood = barrio.String
	inv.PostalNote = postal.String
	inv.MeterNumber = meter.String
	inv.Period = period.String
	inv.Consumption = consumo.Float64

	return &inv, nil
}
