package mcp

import "encoding/json"

// ToolSpec describes one tool for agent registration.
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

const (
	metricDoc = "object {coords: string[], entries: row-major expressions}"
	tensorDoc = "object {shape: int[], entries: expressions, signature: [{label, variance}]}"
)

// Tools lists every tool Handle accepts.
func Tools() []ToolSpec {
	metricOnly := map[string]string{"metric": "object"}
	return []ToolSpec{
		ts("parse", "Parse an infix expression into an expression tree", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("canonicalize", "Rational canonical form of an expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("diff", "Partial derivative ∂/∂var in canonical form", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string"}),
		ts("inverse_metric", "Inverse metric g^{ab}. metric="+metricDoc, []string{"metric"}, metricOnly),
		ts("christoffel", "Christoffel symbols Γ^a_{bc}", []string{"metric"}, metricOnly),
		ts("riemann", "Riemann tensor R^a_{bcd}", []string{"metric"}, metricOnly),
		ts("riemann_lower", "Fully covariant Riemann tensor R_{abcd}", []string{"metric"}, metricOnly),
		ts("ricci", "Ricci tensor R_{ab}", []string{"metric"}, metricOnly),
		ts("ricci_scalar", "Ricci scalar R", []string{"metric"}, metricOnly),
		ts("einstein", "Einstein tensor G_{ab}", []string{"metric"}, metricOnly),
		ts("weyl", "Weyl tensor C_{abcd}, needs at least 3 dimensions", []string{"metric"}, metricOnly),
		ts("covariant_derivative", "Covariant derivative of a tensor. index is \"mu\" or \"-mu\" (raised). tensor="+tensorDoc,
			[]string{"metric", "index", "tensor"}, map[string]string{"metric": "object", "index": "string", "tensor": "object"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
}

// MCPToolSpec returns Tools as indented JSON.
func MCPToolSpec() string {
	b, _ := json.MarshalIndent(map[string]interface{}{"tools": Tools()}, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) ToolSpec {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return ToolSpec{
		Name:        name,
		Description: description,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
