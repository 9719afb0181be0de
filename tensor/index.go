package tensor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================
// Variance and index slots
// ============================================================

// Variance classifies a slot as contravariant (Upper) or covariant (Lower).
// The zero value is not a valid variance.
type Variance int

const (
	VarianceUnknown Variance = iota
	Upper
	Lower
)

func (v Variance) String() string {
	switch v {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	}
	return "unknown"
}

func (v Variance) Valid() bool { return v == Upper || v == Lower }

// Opposite returns the other variance.
func (v Variance) Opposite() Variance {
	switch v {
	case Upper:
		return Lower
	case Lower:
		return Upper
	}
	return VarianceUnknown
}

// ParseVariance accepts upper/up/contravariant/^ and lower/down/covariant/_.
func ParseVariance(s string) (Variance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper", "up", "contravariant", "^":
		return Upper, nil
	case "lower", "down", "covariant", "_":
		return Lower, nil
	}
	return VarianceUnknown, fmt.Errorf("%w: unknown variance %q", ErrInvalidIndexLabel, s)
}

func (v Variance) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: variance %d", ErrInvalidIndexLabel, int(v))
	}
	return []byte(v.String()), nil
}

func (v *Variance) UnmarshalText(b []byte) error {
	parsed, err := ParseVariance(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Index is one named slot of a tensor.
type Index struct {
	Label    string   `json:"label" yaml:"label"`
	Variance Variance `json:"variance" yaml:"variance"`
}

func Up(label string) Index   { return Index{Label: label, Variance: Upper} }
func Down(label string) Index { return Index{Label: label, Variance: Lower} }

// Flip returns the same label with the opposite variance.
func (i Index) Flip() Index { return Index{Label: i.Label, Variance: i.Variance.Opposite()} }

func (i Index) String() string {
	switch i.Variance {
	case Upper:
		return "^" + i.Label
	case Lower:
		return "_" + i.Label
	}
	return "?" + i.Label
}

// ParseIndex reads "^a" as an upper slot and "_a" as a lower slot.
func ParseIndex(s string) (Index, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Index{}, fmt.Errorf("%w: empty index", ErrInvalidIndexLabel)
	}
	v, err := ParseVariance(s[:1])
	if err != nil {
		return Index{}, fmt.Errorf("%w: index %q needs a ^ or _ prefix", ErrInvalidIndexLabel, s)
	}
	idx := Index{Label: strings.TrimSpace(s[1:]), Variance: v}
	if err := idx.validate(); err != nil {
		return Index{}, err
	}
	return idx, nil
}

func (i Index) validate() error {
	if strings.TrimSpace(i.Label) == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidIndexLabel)
	}
	if !i.Variance.Valid() {
		return fmt.Errorf("%w: %q has no variance", ErrInvalidIndexLabel, i.Label)
	}
	return nil
}

// ============================================================
// Signature
// ============================================================

// Signature is the ordered slot list of a tensor, one entry per axis.
type Signature []Index

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, idx := range s {
		parts[i] = idx.String()
	}
	return strings.Join(parts, "")
}

// Positions returns every slot position carrying label.
func (s Signature) Positions(label string) []int {
	var out []int
	for i, idx := range s {
		if idx.Label == label {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks every slot and rejects labels used more than twice.
func (s Signature) Validate() error {
	count := map[string]int{}
	for _, idx := range s {
		if err := idx.validate(); err != nil {
			return err
		}
		count[idx.Label]++
		if count[idx.Label] > 2 {
			return fmt.Errorf("%w: label %q appears %d times", ErrAmbiguousContraction, idx.Label, count[idx.Label])
		}
	}
	return nil
}

// Without returns a copy of s with the given positions removed.
func (s Signature) Without(positions ...int) Signature {
	drop := map[int]bool{}
	for _, p := range positions {
		drop[p] = true
	}
	out := make(Signature, 0, len(s))
	for i, idx := range s {
		if !drop[i] {
			out = append(out, idx)
		}
	}
	return out
}

// ============================================================
// Tensor
// ============================================================

// Tensor pairs an array with its index signature.
type Tensor struct {
	Array     *Array
	Signature Signature
}

// New attaches sig to a after checking that they describe each other.
func New(a *Array, sig ...Index) (Tensor, error) {
	t := Tensor{Array: a, Signature: append(Signature(nil), sig...)}
	if err := t.checkStructure(); err != nil {
		return Tensor{}, err
	}
	return t, nil
}

func (t Tensor) Rank() int { return len(t.Signature) }

func (t Tensor) String() string {
	if len(t.Signature) == 0 {
		return t.Array.String()
	}
	return "T" + t.Signature.String() + " = " + t.Array.String()
}

func (t Tensor) checkStructure() error {
	if t.Array == nil {
		return fmt.Errorf("%w: nil array", ErrUnsupportedTensorStructure)
	}
	if len(t.Signature) != t.Array.Rank() {
		return fmt.Errorf("%w: signature %s has %d slots for a rank %d array",
			ErrUnsupportedTensorStructure, t.Signature, len(t.Signature), t.Array.Rank())
	}
	return t.Signature.Validate()
}

// Validate checks the structure and that every axis has extent n.
func (t Tensor) Validate(n int) error {
	if err := t.checkStructure(); err != nil {
		return err
	}
	for k, d := range t.Array.shape {
		if d != n {
			return fmt.Errorf("%w: slot %s has extent %d, coordinate dimension is %d",
				ErrDimensionMismatch, t.Signature[k], d, n)
		}
	}
	return nil
}

// Contract traces every pair of slots sharing a label. Pairs must have
// opposite variance.
func (t Tensor) Contract() (Tensor, error) {
	if err := t.checkStructure(); err != nil {
		return Tensor{}, err
	}
	for {
		i, j, found := -1, -1, false
		for a := 0; a < len(t.Signature) && !found; a++ {
			for b := a + 1; b < len(t.Signature); b++ {
				if t.Signature[a].Label == t.Signature[b].Label {
					i, j, found = a, b, true
					break
				}
			}
		}
		if !found {
			return t, nil
		}
		if t.Signature[i].Variance == t.Signature[j].Variance {
			return Tensor{}, fmt.Errorf("%w: %q repeated with the same variance %s",
				ErrInvalidIndexLabel, t.Signature[i].Label, t.Signature[i].Variance)
		}
		if t.Array.shape[i] != t.Array.shape[j] {
			return Tensor{}, fmt.Errorf("%w: contracted slots of %q have extents %d and %d",
				ErrDimensionMismatch, t.Signature[i].Label, t.Array.shape[i], t.Array.shape[j])
		}
		t = Tensor{Array: t.Array.Trace(i, j), Signature: t.Signature.Without(i, j)}
	}
}

// Simplify canonicalizes the array entries.
func (t Tensor) Simplify() Tensor { return Tensor{Array: t.Array.Simplify(), Signature: t.Signature} }

func (t Tensor) MarshalJSON() ([]byte, error) {
	arr, err := t.Array.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(arr, &m); err != nil {
		return nil, err
	}
	sig := t.Signature
	if sig == nil {
		sig = Signature{}
	}
	m["signature"] = sig
	return json.Marshal(m)
}

func (t *Tensor) UnmarshalJSON(b []byte) error {
	var a Array
	if err := a.UnmarshalJSON(b); err != nil {
		return err
	}
	var aux struct {
		Signature Signature `json:"signature"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	out, err := New(&a, aux.Signature...)
	if err != nil {
		return err
	}
	*t = out
	return nil
}
