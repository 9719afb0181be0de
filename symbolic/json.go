package symbolic

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON encodes e as its expression tree.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// Tree returns the decoded-JSON form of e, suitable for embedding in a
// larger document.
func Tree(e Expr) map[string]interface{} { return e.toJSON() }

// FromValue decodes an expression given either as infix text, a JSON
// number or an expression tree object.
func FromValue(v interface{}) (Expr, error) {
	switch x := v.(type) {
	case string:
		return Parse(x)
	case float64:
		return ratLiteral(fmt.Sprint(x))
	case json.Number:
		return ratLiteral(x.String())
	case int:
		return N(int64(x)), nil
	case map[string]interface{}:
		return FromJSON(x)
	case nil:
		return nil, fmt.Errorf("%w: null expression", ErrInvalidJSON)
	}
	return nil, fmt.Errorf("%w: unsupported value of type %T", ErrInvalidJSON, v)
}

// ratLiteral reads a decimal literal exactly.
func ratLiteral(lit string) (Expr, error) {
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		return nil, fmt.Errorf("%w: bad number %s", ErrInvalidJSON, lit)
	}
	return &Num{val: r}, nil
}

// FromJSON decodes an expression tree produced by ToJSON.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: expression must be an object", ErrInvalidJSON)
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("%w: field 'type' must be a non-empty string", ErrInvalidJSON)
	}
	n := node{typ: typ, data: data}

	switch typ {
	case "num":
		val, err := n.str("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("%w: invalid num value %q", ErrInvalidJSON, val)
		}
		return &Num{val: r}, nil
	case "sym":
		name, err := n.str("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil
	case "add":
		terms, err := n.children("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil
	case "mul":
		factors, err := n.children("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil
	case "pow":
		base, err := n.child("base")
		if err != nil {
			return nil, err
		}
		exp, err := n.child("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	case "func":
		name, err := n.str("name")
		if err != nil {
			return nil, err
		}
		arg, err := n.child("arg")
		if err != nil {
			return nil, err
		}
		return funcOf(name, arg).Simplify(), nil
	}
	return nil, fmt.Errorf("%w: unknown expression type %q", ErrInvalidJSON, typ)
}

// node reads the fields of one tree object, reporting errors by path.
type node struct {
	typ  string
	data map[string]interface{}
}

func (n node) str(field string) (string, error) {
	s, ok := n.data[field].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s: %q must be a non-empty string", ErrInvalidJSON, n.typ, field)
	}
	return s, nil
}

func (n node) child(field string) (Expr, error) {
	m, ok := n.data[field].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q must be an object", ErrInvalidJSON, n.typ, field)
	}
	e, err := FromJSON(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", n.typ, field, err)
	}
	return e, nil
}

func (n node) children(field string) ([]Expr, error) {
	raw, ok := n.data[field].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q must be an array", ErrInvalidJSON, n.typ, field)
	}
	out := make([]Expr, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s: %q[%d] must be an object", ErrInvalidJSON, n.typ, field, i)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s[%d]: %w", n.typ, field, i, err)
		}
		out[i] = e
	}
	return out, nil
}
