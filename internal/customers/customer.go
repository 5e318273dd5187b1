package customers

import (
	"database/sql"
	"strings"
	"time"
)

// Customer is one utility account holder. The same shape exists in two
// tiers: the company's read-only source system and the local writable copy
// this service owns. Records enter the local tier on first access and are
// the only ones that ever accept writes.
type Customer struct {
	CodUser      int64      `json:"cod_user"`
	DNI          string     `json:"dni"`
	FirstName    string     `json:"nombre"`
	LastName     string     `json:"apellido"`
	Email        string     `json:"email"`
	Phone        string     `json:"celular"`
	Street       string     `json:"calle"`
	Neighborhood string     `json:"barrio"`
	SupplyNumber string     `json:"numero_suministro"`
	MeterNumber  string     `json:"numero_medidor"`
	AddedAt      *time.Time `json:"fec_add,omitempty"`
	ValidatedAt  *time.Time `json:"fec_validacion,omitempty"`
}

// FullName renders "Nombre Apellido", empty when neither part is known.
func (c Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

type customerRow struct {
	codUser      int64
	dni          string
	firstName    sql.NullString
	lastName     sql.NullString
	email        sql.NullString
	phone        sql.NullString
	street       sql.NullString
	neighborhood sql.NullString
	supplyNumber sql.NullString
	meterNumber  sql.NullString
	addedAt      sql.NullTime
	validatedAt  sql.NullTime
}

func (r customerRow) toCustomer() *Customer {
	c := &Customer{
		CodUser:      r.codUser,
		DNI:          r.dni,
		FirstName:    r.firstName.String,
		LastName:     r.lastName.String,
		Email:        r.email.String,
		Phone:        r.phone.String,
		Street:       r.street.String,
		Neighborhood: r.neighborhood.String,
		SupplyNumber: r.supplyNumber.String,
		MeterNumber:  r.meterNumber.String,
	}
	if r.addedAt.Valid {
		t := r.addedAt.Time
		c.AddedAt = &t
	}
	if r.validatedAt.Valid {
		t := r.validatedAt.Time
		c.ValidatedAt = &t
	}
	return c
}
