// ABOUTME: Canonical tracking result contract and tolerant upstream payload types.
// ABOUTME: Upstream values decode through flexString so numbers and strings both land as text.

package tracking

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NotAvailable is the sentinel for fields no upstream variant supplied.
const NotAvailable = "No disponible"

// UnknownStatus is the sentinel when no status text exists at all.
const UnknownStatus = "DESCONOCIDO"

// Query identifies one tracking lookup.
type Query struct {
	// Guia is the carrier-assigned tracking number. Required, trimmed.
	Guia string
	// Cliente is an optional customer name, cosmetic only; it is carried
	// into the result unmodified and never sent upstream.
	Cliente string
	// Push is an upstream passthrough parameter. Defaults to "-".
	Push string
}

// Event is one canonical entry in a shipment's movement history.
type Event struct {
	Fecha       string `json:"fecha"`
	Descripcion string `json:"descripcion"`
	Ubicacion   string `json:"ubicacion,omitempty"`
	Codigo      string `json:"codigo,omitempty"`
}

// Entrega is the delivery-confirmation sub-record. It is omitted from the
// result entirely when the upstream record carries no confirmation.
type Entrega struct {
	Recibe string `json:"recibe"`
	Fecha  string `json:"fecha"`
	Lat    string `json:"lat,omitempty"`
	Lng    string `json:"lng,omitempty"`
}

// Result is the canonical tracking outcome. Every field has a defined
// fallback value; none is ever left undefined.
type Result struct {
	Guia          string   `json:"guia"`
	Cliente       string   `json:"cliente,omitempty"`
	Remitente     string   `json:"remitente"`
	Destinatario  string   `json:"destinatario"`
	Origen        string   `json:"origen"`
	Destino       string   `json:"destino"`
	Estado        string   `json:"estado"`
	Ubicacion     string   `json:"ubicacion"`
	Fecha         string   `json:"fecha"`
	FechaEstimada string   `json:"fechaEstimada,omitempty"`
	Historial     []Event  `json:"historial"`
	Entrega       *Entrega `json:"entrega,omitempty"`
}

// flexString decodes a JSON string, number, boolean, or null into a string.
// The upstream API is inconsistent about numeric fields across revisions.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	// Numbers and booleans keep their literal text form
	*f = flexString(data)
	return nil
}

func (f flexString) str() string {
	return strings.TrimSpace(string(f))
}

// rawEvent is one upstream history entry, all field variants included.
type rawEvent struct {
	FechaMov         flexString `json:"fechamov"`
	HoraMov          flexString `json:"horamov"`
	FchLegible       flexString `json:"fchlegible"`
	Movimiento       flexString `json:"movimiento"`
	Mov              flexString `json:"mov"`
	MensajeCliente   flexString `json:"MensageCliente"`
	UbicacionLegible flexString `json:"UbicacionLegible"`
	Ubicacion        flexString `json:"ubicacion"`
}

// rawEntrega is the upstream delivery-confirmation sub-object.
type rawEntrega struct {
	Recibe flexString `json:"recibe"`
	Fecha  flexString `json:"fecha"`
	Hora   flexString `json:"hora"`
	Lat    flexString `json:"lat"`
	Lng    flexString `json:"lng"`
}

// rawRecord is one upstream tracking object as delivered, unvalidated.
type rawRecord struct {
	Code        flexString `json:"code"`
	MsgTxt      flexString `json:"msgtxt"`
	Fecha       flexString `json:"fecha"`
	Hora        flexString `json:"hora"`
	FchEstimada flexString `json:"fchEstimada"`

	OrgLegible flexString `json:"orgLegible"`
	Origen     flexString `json:"origen"`
	DstLegible flexString `json:"dstLegible"`
	Destino    flexString `json:"destino"`

	RmtLegible   flexString `json:"rmtLegible"`
	Remitente    flexString `json:"remitente"`
	DtoLegible   flexString `json:"dtoLegible"`
	Destinatario flexString `json:"destinatario"`

	Historial []rawEvent  `json:"historial"`
	Entrega   *rawEntrega `json:"entrega"`
}

// Payload is the upstream response: a sequence of at most one record.
type Payload []rawRecord

// Kind classifies a tracking outcome.
type Kind string

const (
	// KindOK carries a populated Result.
	KindOK Kind = "ok"
	// KindConnection means the upstream fetch failed at the network or
	// HTTP layer; the guide's status is simply unknown right now.
	KindConnection Kind = "connection"
	// KindNotFound means the carrier responded but does not know the guide.
	KindNotFound Kind = "not_found"
	// KindNoMovements means the guide exists but has no events yet.
	KindNoMovements Kind = "no_movements"
)

// Outcome is the tagged result of a normalize pass. Result is non-nil
// exactly when Kind is KindOK. Detail carries the technical diagnostic for
// failure kinds; it is logged, not shown as the primary user message.
type Outcome struct {
	Kind   Kind
	Result *Result
	Detail string
}

// Message returns the caller-facing text for a failure outcome. For KindOK
// callers render the Result instead.
func (o Outcome) Message(guia string) string {
	switch o.Kind {
	case KindConnection:
		return "No fue posible consultar el rastreo en este momento. Intenta de nuevo más tarde."
	case KindNotFound:
		return "No se encontró información para la guía " + guia + ". Verifica el número e intenta de nuevo."
	case KindNoMovements:
		return "La guía " + guia + " existe pero aún no registra movimientos."
	default:
		return ""
	}
}
