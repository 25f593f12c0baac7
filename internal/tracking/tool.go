// ABOUTME: The envios_rastreo tool: wires client, cache, normalizer, and journal.
// ABOUTME: All four tracking outcomes come back as normal tool responses, never protocol errors.

package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tufesa-labs/tufesa-mcp/internal/tools"
)

// ToolName is the registered name of the tracking tool.
const ToolName = "envios_rastreo"

// ResultCache caches classified outcomes keyed by guide+push so repeated
// lookups inside the TTL do not re-hit the carrier API.
type ResultCache interface {
	Get(key string) (any, bool)
	Put(key string, value any)
}

// Lookup is one journal entry describing a completed tracking query.
type Lookup struct {
	Guia    string
	Cliente string
	Outcome Kind
	Estado  string
	Cached  bool
}

// Journal records completed lookups. Recording is best effort; failures are
// logged and never surface to the caller.
type Journal interface {
	RecordLookup(ctx context.Context, l Lookup) error
}

// ToolDeps holds the collaborators of the tracking tool. Cache and Journal
// are optional.
type ToolDeps struct {
	Client  *Client
	Cache   ResultCache
	Journal Journal
	Logger  *slog.Logger
}

type toolInput struct {
	Guia    string `json:"guia"`
	Cliente string `json:"cliente"`
	Push    string `json:"push"`
}

// NewToolDefinition builds the envios_rastreo tool definition.
func NewToolDefinition(deps ToolDeps) *tools.Definition {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("tool_name", ToolName)

	h := &toolHandler{deps: deps, logger: logger}

	return &tools.Definition{
		Name:        ToolName,
		Description: "Consulta el estatus de un envío Tufesa por número de guía",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"guia":    {Type: "string", Description: "Número de guía del envío"},
				"cliente": {Type: "string", Description: "Nombre del cliente (opcional, solo informativo)"},
				"push":    {Type: "string", Description: "Identificador push (opcional)"},
			},
			Required: []string{"guia"},
		},
		Handler: h.handle,
	}
}

type toolHandler struct {
	deps   ToolDeps
	logger *slog.Logger
}

func (h *toolHandler) handle(ctx context.Context, input json.RawMessage) (*tools.Result, error) {
	var in toolInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	query := Query{
		Guia:    strings.TrimSpace(in.Guia),
		Cliente: strings.TrimSpace(in.Cliente),
		Push:    strings.TrimSpace(in.Push),
	}
	if query.Guia == "" {
		return tools.ErrorResult("el número de guía no puede estar vacío"), nil
	}

	outcome, cached := h.lookup(ctx, query)

	h.record(ctx, query, outcome, cached)

	return render(outcome, query), nil
}

// lookup resolves an outcome from the cache or the upstream API. Connection
// failures are never cached; a transient fault must not shadow the next
// attempt inside the TTL.
func (h *toolHandler) lookup(ctx context.Context, query Query) (Outcome, bool) {
	key := query.Guia + "|" + query.Push

	if h.deps.Cache != nil {
		if v, ok := h.deps.Cache.Get(key); ok {
			if outcome, ok := v.(Outcome); ok {
				h.logger.Debug("tracking cache hit", "guia", query.Guia)
				// Cached outcomes still carry the caller's cosmetic name
				return withCliente(outcome, query.Cliente), true
			}
		}
	}

	payload, err := h.deps.Client.Fetch(ctx, query.Guia, query.Push)
	outcome := Normalize(payload, err, query)

	if h.deps.Cache != nil && outcome.Kind != KindConnection {
		h.deps.Cache.Put(key, outcome)
	}

	return outcome, false
}

func (h *toolHandler) record(ctx context.Context, query Query, outcome Outcome, cached bool) {
	if h.deps.Journal == nil {
		return
	}

	l := Lookup{
		Guia:    query.Guia,
		Cliente: query.Cliente,
		Outcome: outcome.Kind,
		Cached:  cached,
	}
	if outcome.Result != nil {
		l.Estado = outcome.Result.Estado
	}

	if err := h.deps.Journal.RecordLookup(ctx, l); err != nil {
		h.logger.Warn("recording lookup failed",
			"guia", query.Guia,
			"error", err,
		)
	}
}

// withCliente rebinds the cosmetic customer name on a cached OK outcome.
func withCliente(o Outcome, cliente string) Outcome {
	if o.Kind != KindOK || o.Result == nil {
		return o
	}
	r := *o.Result
	r.Cliente = cliente
	o.Result = &r
	return o
}

// render turns an outcome into the tool response. Business failures are
// plain text with a structured mirror carrying the outcome kind; the
// technical detail rides along as a secondary field, never as the headline.
func render(o Outcome, query Query) *tools.Result {
	if o.Kind == KindOK {
		r := o.Result
		summary := fmt.Sprintf("Guía %s — Estado: %s — Última actualización: %s", r.Guia, r.Estado, r.Fecha)
		if r.FechaEstimada != "" {
			summary += " — ETA: " + r.FechaEstimada
		} else {
			summary += " — ETA: por definir"
		}
		return tools.StructuredResult(summary, r)
	}

	msg := o.Message(query.Guia)
	return tools.StructuredResult(msg, map[string]string{
		"resultado": string(o.Kind),
		"mensaje":   msg,
		"guia":      query.Guia,
		"detalle":   o.Detail,
	})
}
