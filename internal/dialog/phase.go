package dialog

// Phase is the single current step of a per-user dialogue. Every phase
// represents exactly one pending question, so the whole conversation is
// resumable from the persisted state record alone.
type Phase string

const (
	PhaseStart          Phase = "start"
	PhaseSelectField    Phase = "select_field"
	PhaseAskID          Phase = "ask_id"
	PhaseConfirmID      Phase = "confirm_id"
	PhaseAskDescription Phase = "ask_description"
	PhaseListComplaints Phase = "list_complaints"
	PhaseConfirmUpdate  Phase = "confirm_update"
)

// ParsePhase maps a stored phase value back to a Phase, defaulting to
// PhaseStart for empty or unknown values so a corrupted record can never
// strand a user outside the state machine.
func ParsePhase(raw string) Phase {
	switch Phase(raw) {
	case PhaseSelectField, PhaseAskID, PhaseConfirmID,
		PhaseAskDescription, PhaseListComplaints, PhaseConfirmUpdate:
		return Phase(raw)
	default:
		return PhaseStart
	}
}

// Action identifies which of the four workflows is active.
type Action string

const (
	ActionNone         Action = ""
	ActionComplaint    Action = "complaint"
	ActionUpdate       Action = "update"
	ActionCheckStatus  Action = "check_status"
	ActionCheckInvoice Action = "check_invoice"
)

// UpdatableField names a customer attribute the update workflow may change.
// The tokens double as the keys of the customer update payload.
type UpdatableField string

const (
	FieldStreet       UpdatableField = "CALLE"
	FieldNeighborhood UpdatableField = "BARRIO"
	FieldPhone        UpdatableField = "CELULAR"
	FieldEmail        UpdatableField = "EMAIL"
)

// fieldOptions maps what the user may type in the select-field phase
// (including synonyms) to the canonical field token.
var fieldOptions = map[string]UpdatableField{
	"calle":    FieldStreet,
	"barrio":   FieldNeighborhood,
	"celular":  FieldPhone,
	"telefono": FieldPhone,
	"teléfono": FieldPhone,
	"correo":   FieldEmail,
	"mail":     FieldEmail,
}

// FieldLabel is the Spanish word used when talking about a field to the user.
func FieldLabel(f UpdatableField) string {
	switch f {
	case FieldStreet:
		return "calle"
	case FieldNeighborhood:
		return "barrio"
	case FieldPhone:
		return "celular"
	case FieldEmail:
		return "correo"
	default:
		return string(f)
	}
}
