// ABOUTME: Basic built-in tools: ping, hola, and sumar.
// ABOUTME: Small schema-validated examples exposed alongside the tracking tool.

package builtins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tufesa-labs/tufesa-mcp/internal/tools"
)

// Basic returns the basic tool definitions registered on every server.
func Basic() []*tools.Definition {
	return []*tools.Definition{
		{
			Name:        "ping",
			Description: "Responde pong",
			InputSchema: &jsonschema.Schema{Type: "object"},
			Handler:     ping,
		},
		{
			Name:        "hola",
			Description: "Devuelve un saludo personalizado",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"nombre": {Type: "string", Description: "Nombre de la persona a saludar"},
				},
				Required: []string{"nombre"},
			},
			Handler: hola,
		},
		{
			Name:        "sumar",
			Description: "Suma dos números",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"a": {Type: "number"},
					"b": {Type: "number"},
				},
				Required: []string{"a", "b"},
			},
			Handler: sumar,
		},
	}
}

func ping(_ context.Context, _ json.RawMessage) (*tools.Result, error) {
	return tools.TextResult("pong"), nil
}

type holaInput struct {
	Nombre string `json:"nombre"`
}

func hola(_ context.Context, input json.RawMessage) (*tools.Result, error) {
	var in holaInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	mensaje := fmt.Sprintf("¡Hola, %s! Soy el servidor MCP de Tufesa.", in.Nombre)
	return tools.StructuredResult(mensaje, map[string]string{"mensaje": mensaje}), nil
}

type sumarInput struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func sumar(_ context.Context, input json.RawMessage) (*tools.Result, error) {
	var in sumarInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	total := in.A + in.B
	return tools.StructuredResult(
		fmt.Sprintf("%g", total),
		map[string]float64{"resultado": total},
	), nil
}
