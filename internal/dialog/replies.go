package dialog

import (
	"fmt"
	"strings"
	"time"
)

// User-facing texts. The bot speaks Spanish; everything the engine can say
// lives here so the phase logic stays free of copy.

const (
	replyNotUnderstood = "No entendí bien. ¿En qué te ayudo? Decime si querés un reclamo, actualizar datos, consultar algo o ver tu factura."

	replyAskDNIForComplaint = "💡 Lamentamos mucho escuchar que estás teniendo problemas con nuestro servicio. " +
		"Para ayudarte con tu reclamo, por favor, dime tu número de DNI. " +
		"¡Estaremos atentos para resolverlo lo antes posible! 🙏"

	replySelectField = "📋 ¿Qué dato te gustaría actualizar hoy?\n" +
		"🏠 Calle\n" +
		"🏘️ Barrio\n" +
		"📱 Celular\n" +
		"✉️ Correo\n" +
		"Por favor, elige una opción (por ejemplo, escribe 'calle')."

	replySelectFieldRetry = "❓ No reconocí eso. Por favor, elige una opción válida:\n" +
		"🏠 Calle\n" +
		"🏘️ Barrio\n" +
		"📱 Celular\n" +
		"✉️ Correo\n" +
		"Escribe la opción que deseas (por ejemplo, 'calle')."

	replyAskDNIForStatus = "📋 ¡Hola! Entiendo que deseas ver tus reclamos. " +
		"Para ayudarte con eso, por favor proporciona tu número de DNI. ✨ ¡Gracias!"

	replyAskDNIForInvoice = "📄 Por favor, dame tu DNI para consultar tu factura. ✨"

	replyInvalidDNI = "❌ Eso no parece un DNI válido. Por favor, ingresa solo números."

	replyConfirmRetry = "❓ Por favor, dime 'sí' o 'no' para confirmar."

	replyDNIRejected = "ℹ️ Entendido, parece que el DNI no es correcto. Dime otro cuando quieras."

	replyDescriptionTooShort = "❓ Por favor, dame más detalles (mínimo 3 caracteres)."

	replyComplaintFailed = "❌ No pude registrar tu reclamo. ¿Intentamos de nuevo?"

	replyComplaintIDRetry = "❓ Por favor, dame un ID de reclamo (solo números)."

	replyComplaintNotFound = "❌ No encontré ese reclamo. Verifica el ID e intenta de nuevo."

	replyUpdateFailed = "❌ No pude actualizar. ¿Probamos otra vez?"

	replyInvoiceNotFound = "❌ No encontré tu factura. Verifica el DNI e intenta de nuevo."

	replyCancelled = "✅ Proceso cancelado con éxito."

	replyNothingToCancel = "ℹ️ No hay ningún proceso activo para cancelar."

	replyIdleTimeout = "⏰ Han pasado 5 minutos sin actividad. Te he sacado del proceso.\n\n✨ ¿En qué puedo ayudarte ahora?"

	replyTurnFailed = "❌ Algo falló. Intentemos de nuevo."

	footerCancelHint = "\n\n Escribi 'cancelar' o 'salir' para detener el proceso."

	footerMenuHint = "\n\n🌟 ¿Necesitas algo más? Puedo ayudarte con un reclamo, actualizar datos, consultar estados o facturas."

	unknownUserName = "Usuario Desconocido"

	notAvailable = "No disponible"
)

func replyFeatureUnavailable(feature string) string {
	return fmt.Sprintf("❌ Funcionalidad no disponible: %s no está configurado.", feature)
}

func replyConfirmIdentity(name string) string {
	return fmt.Sprintf("👤 ¿Eres %s? Dime 'sí' o 'no' para confirmar.", name)
}

func replySelectedField(label string) string {
	return fmt.Sprintf("✨ Entendido, quieres actualizar tu %s. Por favor, dame tu DNI para continuar.", label)
}

func replyAskDescription(name string) string {
	return fmt.Sprintf("✅ Gracias por confirmar, %s. Cuéntame qué problema tienes para registrar tu reclamo.", name)
}

func replyAskNewValue(label string) string {
	return fmt.Sprintf("✨ Dime el nuevo valor para tu %s.", label)
}

func replyComplaintRegistered(name string, id int64, description string) string {
	return fmt.Sprintf("✅ Listo, %s. Tu reclamo está registrado con éxito:\n🆔 ID: %d\n📊 Estado: Pendiente\n📝 Resumen: %s",
		name, id, description)
}

func replyComplaintList(name, list string) string {
	return fmt.Sprintf("✅ Gracias, %s. Aquí están tus últimos 5 reclamos:\n%s\n🔍 Dime el ID de uno para más detalles.",
		name, list)
}

func replyUpdateDone(name, label, value string) string {
	return fmt.Sprintf("✅ ¡Actualización exitosa, %s!\n✨ Tu %s ha sido actualizado a: %s.", name, label, value)
}

// ComplaintSummary is the view the engine renders in the check-status list.
type ComplaintSummary struct {
	ID          int64
	Status      string
	Description string
}

// ComplaintDetail is the view rendered when a single complaint is queried.
type ComplaintDetail struct {
	ID           int64
	Description  string
	Status       string
	CreatedAt    time.Time
	CustomerName string
	CustomerDNI  string
	Street       string
	Neighborhood string
}

// InvoiceView is the invoice rendering the engine produces for chat.
type InvoiceView struct {
	CustomerName  string
	DNI           string
	SupplyCode    string
	ReceiptNumber string
	IssuedAt      string
	Status        string
	Total         float64
	DueAt         string
	Street        string
	Neighborhood  string
	PostalNote    string
	MeterNumber   string
	Period        string
	Consumption   float64
}

func renderComplaintList(items []ComplaintSummary) string {
	if len(items) == 0 {
		return "ℹ️ No tienes reclamos registrados recientemente."
	}
	lines := make([]string, 0, len(items))
	for _, c := range items {
		desc := c.Description
		if len([]rune(desc)) > 50 {
			desc = string([]rune(desc)[:50])
		}
		lines = append(lines, fmt.Sprintf("🆔 ID: %d | 📊 Estado: %s | 📝 Descripción: %s...", c.ID, c.Status, desc))
	}
	return strings.Join(lines, "\n")
}

func renderComplaintDetail(d ComplaintDetail) string {
	created := notAvailable
	if !d.CreatedAt.IsZero() {
		created = d.CreatedAt.Format("02/01/2006 15:04")
	}
	address := notAvailable
	switch {
	case d.Street != "" && d.Neighborhood != "":
		address = fmt.Sprintf("calle %s, barrio %s", d.Street, d.Neighborhood)
	case d.Street != "":
		address = d.Street
	case d.Neighborhood != "":
		address = d.Neighborhood
	}
	return fmt.Sprintf("📋 Detalles del reclamo ID %d:\n"+
		"📝 *Descripción*: %s\n"+
		"📊 *Estado*: %s\n"+
		"📅 *Fecha de Reclamo*: %s\n"+
		"👤 *Cliente*: %s (DNI: %s)\n"+
		"🏠 *Dirección*: %s",
		d.ID, orNA(d.Description), orNA(d.Status), created, orNA(d.CustomerName), orNA(d.CustomerDNI), address)
}

func renderInvoice(dni string, inv InvoiceView) string {
	return fmt.Sprintf("📄 Factura de %s (DNI: %s):\n"+
		"📋 *Código Suministro*: %s\n"+
		"📄 *N° Comprobante*: %s\n"+
		"📅 *Fecha Emisión*: %s\n"+
		"✅ *Estado*: %s\n"+
		"💰 *Total*: $%.2f\n"+
		"⏰ *Vencimiento*: %s\n"+
		"🏠 *Dirección*: %s, %s\n"+
		"🔍 *Observación Postal*: %s\n"+
		"⚡ *Medidor*: %s\n"+
		"📆 *Período*: %s\n"+
		"🔋 *Consumo*: %.1f kWh",
		orNA(inv.CustomerName), dni,
		orNA(inv.SupplyCode), orNA(inv.ReceiptNumber), orNA(inv.IssuedAt), orNA(inv.Status),
		inv.Total, orNA(inv.DueAt), orNA(inv.Street), orNA(inv.Neighborhood),
		orNA(inv.PostalNote), orNA(inv.MeterNumber), orNA(inv.Period), inv.Consumption)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
