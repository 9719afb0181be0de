// Package mcp exposes the geometry engine as JSON tool calls for agent
// frameworks. A call names a tool and carries its parameters; the response
// holds the result, its LaTeX and infix renderings, and on failure a stable
// error code.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// ErrBadRequest marks a malformed tool call: unknown tool, missing or
// mistyped parameter.
var ErrBadRequest = errors.New("mcp: bad request")

// Stable error codes carried in ToolResponse.Code.
const (
	CodeDimensionMismatch          = "dimension_mismatch"
	CodeSingularMetric             = "singular_metric"
	CodeUnsupportedDimension       = "unsupported_dimension"
	CodeInvalidIndexLabel          = "invalid_index_label"
	CodeAmbiguousContraction       = "ambiguous_contraction"
	CodeUnsupportedTensorStructure = "unsupported_tensor_structure"
	CodeBadRequest                 = "bad_request"
	CodeInternal                   = "internal"
)

// ErrorCode maps an error to its stable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, geometry.ErrDimensionMismatch), errors.Is(err, tensor.ErrShape), errors.Is(err, symbolic.ErrShape):
		return CodeDimensionMismatch
	case errors.Is(err, geometry.ErrSingularMetric), errors.Is(err, symbolic.ErrSingular):
		return CodeSingularMetric
	case errors.Is(err, geometry.ErrUnsupportedDimension):
		return CodeUnsupportedDimension
	case errors.Is(err, geometry.ErrInvalidIndexLabel):
		return CodeInvalidIndexLabel
	case errors.Is(err, geometry.ErrAmbiguousContraction):
		return CodeAmbiguousContraction
	case errors.Is(err, geometry.ErrUnsupportedTensorStructure):
		return CodeUnsupportedTensorStructure
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, geometry.ErrInvalidMetric),
		errors.Is(err, symbolic.ErrParse),
		errors.Is(err, symbolic.ErrDivisionByZero),
		errors.Is(err, symbolic.ErrInvalidJSON):
		return CodeBadRequest
	}
	return CodeInternal
}

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
	Code   string      `json:"code,omitempty"`
}

func failure(err error) ToolResponse {
	return ToolResponse{Error: err.Error(), Code: ErrorCode(err)}
}

// Handler dispatches tool calls to an engine.
type Handler struct {
	engine *geometry.Engine
}

// NewHandler returns a handler over e; nil means a cache-less engine.
func NewHandler(e *geometry.Engine) *Handler {
	if e == nil {
		e = geometry.NewEngine()
	}
	return &Handler{engine: e}
}

var defaultHandler = NewHandler(nil)

// HandleToolCall runs req on a cache-less engine.
func HandleToolCall(req ToolRequest) ToolResponse { return defaultHandler.Handle(req) }

// Handle runs one tool call. Panics inside the engine are reported as
// internal errors.
func (h *Handler) Handle(req ToolRequest) (resp ToolResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = ToolResponse{Error: fmt.Sprintf("internal error: %v", rec), Code: CodeInternal}
		}
	}()
	p := params(req.Params)

	switch req.Tool {
	case "parse":
		src, err := p.str("expr")
		if err != nil {
			return failure(err)
		}
		e, err := symbolic.Parse(src)
		if err != nil {
			return failure(err)
		}
		return respondExpr(e)

	case "canonicalize":
		e, err := p.expr("expr")
		if err != nil {
			return failure(err)
		}
		c, err := symbolic.Normalize(e)
		if err != nil {
			return failure(err)
		}
		return respondExpr(c)

	case "diff":
		e, err := p.expr("expr")
		if err != nil {
			return failure(err)
		}
		v, err := p.str("var")
		if err != nil {
			return failure(err)
		}
		d, err := symbolic.Normalize(e.Diff(v))
		if err != nil {
			return failure(err)
		}
		return respondExpr(d)

	case "inverse_metric":
		m, err := p.metric("metric")
		if err != nil {
			return failure(err)
		}
		inv, err := m.InverseArray()
		if err != nil {
			return failure(err)
		}
		return respondArray(inv, "g")

	case "christoffel":
		return h.metricTool(p, "\\Gamma", h.engine.Christoffel)
	case "riemann":
		return h.metricTool(p, "R", h.engine.Riemann)
	case "riemann_lower":
		return h.metricTool(p, "R", h.engine.RiemannLower)
	case "ricci":
		return h.metricTool(p, "R", h.engine.Ricci)
	case "einstein":
		return h.metricTool(p, "G", h.engine.Einstein)
	case "weyl":
		return h.metricTool(p, "C", h.engine.Weyl)

	case "ricci_scalar":
		m, err := p.metric("metric")
		if err != nil {
			return failure(err)
		}
		s, err := h.engine.RicciScalar(m)
		if err != nil {
			return failure(err)
		}
		return respondExpr(s)

	case "covariant_derivative":
		m, err := p.metric("metric")
		if err != nil {
			return failure(err)
		}
		raw, err := p.str("index")
		if err != nil {
			return failure(err)
		}
		d, err := geometry.ParseDerivativeIndex(raw)
		if err != nil {
			return failure(err)
		}
		t, err := p.tensor("tensor")
		if err != nil {
			return failure(err)
		}
		out, err := h.engine.CovariantDerivative(m, d, t)
		if err != nil {
			return failure(err)
		}
		resp := respondArray(out.Array, "\\nabla T")
		resp.Result.(map[string]interface{})["signature"] = signatureOf(out)
		resp.String = out.String()
		return resp

	case "mcp_spec":
		return ToolResponse{Result: Tools(), String: MCPToolSpec()}
	}
	return failure(fmt.Errorf("%w: unknown tool %q", ErrBadRequest, req.Tool))
}

func (h *Handler) metricTool(p params, symbol string, fn func(geometry.Metric) (*tensor.Array, error)) ToolResponse {
	m, err := p.metric("metric")
	if err != nil {
		return failure(err)
	}
	arr, err := fn(m)
	if err != nil {
		return failure(err)
	}
	return respondArray(arr, symbol)
}

func signatureOf(t tensor.Tensor) tensor.Signature {
	if t.Signature == nil {
		return tensor.Signature{}
	}
	return t.Signature
}

// ============================================================
// Responses
// ============================================================

func respondExpr(e symbolic.Expr) ToolResponse {
	return ToolResponse{Result: symbolic.Tree(e), LaTeX: symbolic.LaTeX(e), String: symbolic.String(e)}
}

// Component is one non-zero entry of a result array.
type Component struct {
	Index []int  `json:"index"`
	Value string `json:"value"`
}

// Components lists the non-zero entries of arr in row-major order.
func Components(arr *tensor.Array) []Component {
	out := []Component{}
	shape := arr.Shape()
	idx := make([]int, len(shape))
	for _, e := range arr.Entries() {
		if !symbolic.IsZero(e) {
			out = append(out, Component{Index: append([]int(nil), idx...), Value: e.String()})
		}
		for k := len(shape) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}

func respondArray(arr *tensor.Array, symbol string) ToolResponse {
	entries := arr.Entries()
	strs := make([]string, len(entries))
	for i, e := range entries {
		strs[i] = e.String()
	}
	comps := Components(arr)
	return ToolResponse{
		Result: map[string]interface{}{
			"shape":      arr.Shape(),
			"entries":    strs,
			"components": comps,
		},
		LaTeX:  componentsLaTeX(symbol, arr, comps),
		String: arr.String(),
	}
}

func componentsLaTeX(symbol string, arr *tensor.Array, comps []Component) string {
	if arr.Rank() == 2 {
		if m, err := arr.ToMatrix(); err == nil {
			return m.LaTeX()
		}
	}
	lines := make([]string, len(comps))
	for i, c := range comps {
		sub := make([]string, len(c.Index))
		for k, v := range c.Index {
			sub[k] = fmt.Sprint(v)
		}
		e := arr.At(c.Index...)
		lines[i] = fmt.Sprintf("%s_{%s} = %s", symbol, strings.Join(sub, ""), symbolic.LaTeX(e))
	}
	return strings.Join(lines, " \\\\ ")
}

// ============================================================
// Parameters
// ============================================================

type params map[string]interface{}

func (p params) get(key string) (interface{}, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing param: %s", ErrBadRequest, key)
	}
	return v, nil
}

func (p params) str(key string) (string, error) {
	v, err := p.get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: param %s must be a string", ErrBadRequest, key)
	}
	return s, nil
}

// expr accepts an infix string, a number or an expression tree.
func (p params) expr(key string) (symbolic.Expr, error) {
	v, err := p.get(key)
	if err != nil {
		return nil, err
	}
	e, err := symbolic.FromValue(v)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", key, err)
	}
	return e, nil
}

// MetricParam is the wire form of a metric: coordinates plus row-major
// entries.
type MetricParam struct {
	Coords  []string      `json:"coords"`
	Entries []interface{} `json:"entries"`
}

// Metric validates the parameter and builds the metric.
func (mp MetricParam) Metric() (geometry.Metric, error) {
	n := len(mp.Coords)
	if n == 0 {
		return geometry.Metric{}, fmt.Errorf("%w: metric needs coordinates", ErrBadRequest)
	}
	if len(mp.Entries) != n*n {
		return geometry.Metric{}, fmt.Errorf("%w: %d metric entries for %d coordinates", geometry.ErrDimensionMismatch, len(mp.Entries), n)
	}
	rows := make([][]symbolic.Expr, n)
	for i := range rows {
		rows[i] = make([]symbolic.Expr, n)
		for j := range rows[i] {
			e, err := symbolic.FromValue(mp.Entries[i*n+j])
			if err != nil {
				return geometry.Metric{}, fmt.Errorf("metric entry [%d,%d]: %w", i, j, err)
			}
			rows[i][j] = e
		}
	}
	g, err := symbolic.MatrixFromRows(rows)
	if err != nil {
		return geometry.Metric{}, err
	}
	return geometry.NewMetric(g, mp.Coords)
}

// decode round-trips a generic JSON value into out.
func (p params) decode(key string, out interface{}) error {
	v, err := p.get(key)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: param %s: %v", ErrBadRequest, key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		var te *json.UnmarshalTypeError
		var se *json.SyntaxError
		if errors.As(err, &te) || errors.As(err, &se) {
			return fmt.Errorf("%w: param %s: %v", ErrBadRequest, key, err)
		}
		return fmt.Errorf("param %s: %w", key, err)
	}
	return nil
}

func (p params) metric(key string) (geometry.Metric, error) {
	var mp MetricParam
	if err := p.decode(key, &mp); err != nil {
		return geometry.Metric{}, err
	}
	return mp.Metric()
}

func (p params) tensor(key string) (tensor.Tensor, error) {
	var t tensor.Tensor
	if err := p.decode(key, &t); err != nil {
		return tensor.Tensor{}, err
	}
	return t, nil
}
