// ABOUTME: Pure normalization of upstream tracking payloads into the canonical Result.
// ABOUTME: Field precedence is expressed as ordered extractor tables, first non-empty wins.

package tracking

import (
	"fmt"
	"strings"
)

// extractor returns one candidate value for a canonical field, or "".
type extractor func(r *rawRecord, last *rawEvent) string

// Precedence tables. Human-readable ("legible") variants always rank above
// their raw code counterparts; event-level values rank above record-level
// ones where both can describe the current state.
var (
	estadoChain = []extractor{
		func(_ *rawRecord, e *rawEvent) string { return e.MensajeCliente.str() },
		func(_ *rawRecord, e *rawEvent) string { return e.Movimiento.str() },
		func(r *rawRecord, _ *rawEvent) string { return r.MsgTxt.str() },
	}

	ubicacionChain = []extractor{
		func(_ *rawRecord, e *rawEvent) string { return e.UbicacionLegible.str() },
		func(_ *rawRecord, e *rawEvent) string { return e.Ubicacion.str() },
		func(r *rawRecord, _ *rawEvent) string { return r.DstLegible.str() },
		func(r *rawRecord, _ *rawEvent) string { return r.Destino.str() },
	}

	fechaChain = []extractor{
		func(_ *rawRecord, e *rawEvent) string { return e.FchLegible.str() },
		func(_ *rawRecord, e *rawEvent) string { return joinDate(e.FechaMov.str(), e.HoraMov.str()) },
		func(r *rawRecord, _ *rawEvent) string { return joinDate(r.Fecha.str(), r.Hora.str()) },
	}

	remitenteChain = []extractor{
		func(r *rawRecord, _ *rawEvent) string { return r.RmtLegible.str() },
		func(r *rawRecord, _ *rawEvent) string { return r.Remitente.str() },
	}

	destinatarioChain = []extractor{
		func(r *rawRecord, _ *rawEvent) string { return r.DtoLegible.str() },
		func(r *rawRecord, _ *rawEvent) string { return r.Destinatario.str() },
	}

	origenChain = []extractor{
		func(r *rawRecord, _ *rawEvent) string { return r.OrgLegible.str() },
		func(r *rawRecord, _ *rawEvent) string { return r.Origen.str() },
	}

	destinoChain = []extractor{
		func(r *rawRecord, _ *rawEvent) string { return r.DstLegible.str() },
		func(r *rawRecord, _ *rawEvent) string { return r.Destino.str() },
	}
)

// first applies a precedence chain and returns the first non-empty value,
// falling back to the given sentinel.
func first(chain []extractor, r *rawRecord, last *rawEvent, fallback string) string {
	for _, ex := range chain {
		if v := ex(r, last); v != "" {
			return v
		}
	}
	return fallback
}

// Normalize turns one upstream payload (or fetch failure) into a classified
// Outcome. It is pure and deterministic: no I/O, no clock reads.
//
// Order of classification:
//  1. fetchErr != nil            -> KindConnection
//  2. empty payload              -> KindNotFound
//  3. empty event history        -> KindNoMovements
//  4. otherwise                  -> KindOK with a fully populated Result
func Normalize(payload Payload, fetchErr error, query Query) Outcome {
	if fetchErr != nil {
		return Outcome{Kind: KindConnection, Detail: fetchErr.Error()}
	}

	if len(payload) == 0 {
		return Outcome{
			Kind:   KindNotFound,
			Detail: fmt.Sprintf("upstream returned no records for guia %q", query.Guia),
		}
	}

	rec := payload[0]

	if len(rec.Historial) == 0 {
		return Outcome{
			Kind:   KindNoMovements,
			Detail: fmt.Sprintf("guia %q has an empty event history", query.Guia),
		}
	}

	// The last history entry is the current state
	last := rec.Historial[len(rec.Historial)-1]

	result := &Result{
		Guia:          firstNonEmpty(rec.Code.str(), query.Guia),
		Cliente:       query.Cliente,
		Remitente:     first(remitenteChain, &rec, &last, NotAvailable),
		Destinatario:  first(destinatarioChain, &rec, &last, NotAvailable),
		Origen:        first(origenChain, &rec, &last, NotAvailable),
		Destino:       first(destinoChain, &rec, &last, NotAvailable),
		Estado:        first(estadoChain, &rec, &last, UnknownStatus),
		Ubicacion:     first(ubicacionChain, &rec, &last, NotAvailable),
		Fecha:         first(fechaChain, &rec, &last, NotAvailable),
		FechaEstimada: estimada(rec.FchEstimada.str()),
		Historial:     normalizeHistory(rec.Historial),
		Entrega:       normalizeEntrega(rec.Entrega),
	}

	return Outcome{Kind: KindOK, Result: result}
}

// normalizeHistory carries the full ordered history through, most-recent last.
func normalizeHistory(events []rawEvent) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		fecha := joinDate(e.FechaMov.str(), e.HoraMov.str())
		if fecha == "" {
			fecha = e.FchLegible.str()
		}
		out = append(out, Event{
			Fecha:       fecha,
			Descripcion: firstNonEmpty(e.MensajeCliente.str(), e.Movimiento.str()),
			Ubicacion:   firstNonEmpty(e.UbicacionLegible.str(), e.Ubicacion.str()),
			Codigo:      e.Mov.str(),
		})
	}
	return out
}

// normalizeEntrega surfaces the delivery sub-record only when the upstream
// object actually carries confirmation data.
func normalizeEntrega(e *rawEntrega) *Entrega {
	if e == nil {
		return nil
	}
	recibe := e.Recibe.str()
	fecha := joinDate(e.Fecha.str(), e.Hora.str())
	if recibe == "" && fecha == "" {
		return nil
	}
	return &Entrega{
		Recibe: firstNonEmpty(recibe, NotAvailable),
		Fecha:  firstNonEmpty(fecha, NotAvailable),
		Lat:    e.Lat.str(),
		Lng:    e.Lng.str(),
	}
}

// estimada filters the upstream "por definir" placeholder to empty.
func estimada(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), "por definir") {
		return ""
	}
	return v
}

func joinDate(fecha, hora string) string {
	switch {
	case fecha == "":
		return ""
	case hora == "":
		return fecha
	default:
		return fecha + " " + hora
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
