package complaints

import "time"

// Status is the lifecycle state of a complaint. The wire values are the
// Spanish words agents and customers actually see.
type Status string

const (
	StatusPending    Status = "Pendiente"
	StatusInProgress Status = "EnProceso"
	StatusResolved   Status = "Resuelto"
	StatusCancelled  Status = "CanceladoPorUsuario"
)

// ParseStatus validates a requested status transition value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusInProgress, StatusResolved, StatusCancelled:
		return Status(raw), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Complaint is one service complaint plus the customer summary the join
// brings along. ClosedAt is set while the complaint is Resuelto and only
// then.
type Complaint struct {
	ID          int64      `json:"id"`
	CodUser     int64      `json:"cod_user"`
	Description string     `json:"descripcion"`
	Status      Status     `json:"estado"`
	CreatedAt   time.Time  `json:"fecha_reclamo"`
	ClosedAt    *time.Time `json:"fecha_cierre,omitempty"`

	CustomerName string `json:"cliente,omitempty"`
	CustomerDNI  string `json:"dni,omitempty"`
	Street       string `json:"calle,omitempty"`
	Neighborhood string `json:"barrio,omitempty"`
}
