package invoices

import "time"

// Invoice is the latest billing snapshot for a customer, read straight out
// of the company's source system. This module never writes and never
// caches: balances change outside this service's control, so every lookup
// is fresh.
type Invoice struct {
	CustomerName  string     `json:"nombre"`
	DNI           string     `json:"dni"`
	SupplyCode    string     `json:"codigo_suministro"`
	ReceiptNumber string     `json:"numero_comprobante"`
	IssuedAt      *time.Time `json:"fecha_emision,omitempty"`
	Paid          bool       `json:"pagada"`
	StatusKnown   bool       `json:"-"`
	Total         float64    `json:"total"`
	DueAt         *time.Time `json:"vencimiento,omitempty"`
	Street        string     `json:"calle"`
	Neighborhood  string     `json:"barrio"`
	PostalNote    string     `json:"observacion_postal"`
	MeterNumber   string     `json:"numero_medidor"`
	Period        string     `json:"periodo"`
	Consumption   float64    `json:"consumo"`
}

// StatusLabel maps the source system's S/N flag to the words customers see.
func (i Invoice) StatusLabel() string {
	if !i.StatusKnown {
		return ""
	}
	if i.Paid {
		return "Pagada"
	}
	return "Pendiente"
}
