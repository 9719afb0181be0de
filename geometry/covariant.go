package geometry

import (
	"fmt"
	"strings"
	"time"

	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// DerivativeIndex names the derivative slot of ∇. Raised asks for ∇^μ, the
// derivative axis raised with the inverse metric.
type DerivativeIndex struct {
	Label  string `json:"label" yaml:"label"`
	Raised bool   `json:"raised,omitempty" yaml:"raised,omitempty"`
}

// Lower is ∇_label.
func Lower(label string) DerivativeIndex { return DerivativeIndex{Label: label} }

// Raised is ∇^label.
func Raised(label string) DerivativeIndex { return DerivativeIndex{Label: label, Raised: true} }

// ParseDerivativeIndex reads "mu" or "_mu" as ∇_μ and "-mu" or "^mu" as ∇^μ.
func ParseDerivativeIndex(s string) (DerivativeIndex, error) {
	s = strings.TrimSpace(s)
	d := DerivativeIndex{Label: s}
	switch {
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "^"):
		d = Raised(strings.TrimSpace(s[1:]))
	case strings.HasPrefix(s, "_"):
		d = Lower(strings.TrimSpace(s[1:]))
	}
	if err := d.validate(); err != nil {
		return DerivativeIndex{}, err
	}
	return d, nil
}

// Index returns the slot the derivative contributes to the result.
func (d DerivativeIndex) Index() tensor.Index {
	if d.Raised {
		return tensor.Up(d.Label)
	}
	return tensor.Down(d.Label)
}

func (d DerivativeIndex) String() string {
	if d.Raised {
		return "-" + d.Label
	}
	return d.Label
}

func (d DerivativeIndex) validate() error {
	if d.Label == "" {
		return fmt.Errorf("%w: empty derivative label", ErrInvalidIndexLabel)
	}
	if strings.ContainsAny(d.Label, " \t\n-^") {
		return fmt.Errorf("%w: derivative label %q", ErrInvalidIndexLabel, d.Label)
	}
	return nil
}

// CovariantDerivative returns ∇_d t. The result carries the derivative slot
// in front of t's slots. Pairs of equal labels inside t are contracted first;
// if d's label then matches one of t's slots, that pair is traced as well,
// through the metric when both slots have the same variance.
func (e *Engine) CovariantDerivative(m Metric, d DerivativeIndex, t tensor.Tensor) (tensor.Tensor, error) {
	if err := d.validate(); err != nil {
		return tensor.Tensor{}, err
	}
	if err := t.Validate(m.Dim()); err != nil {
		return tensor.Tensor{}, err
	}
	if uses := len(t.Signature.Positions(d.Label)) + 1; uses > 2 {
		return tensor.Tensor{}, fmt.Errorf("%w: derivative label %q appears %d times", ErrAmbiguousContraction, d.Label, uses)
	}
	arr, err := t.Array.Normalize()
	if err != nil {
		return tensor.Tensor{}, err
	}
	t, err = tensor.Tensor{Array: arr, Signature: t.Signature}.Contract()
	if err != nil {
		return tensor.Tensor{}, err
	}
	gamma, err := e.Christoffel(m)
	if err != nil {
		return tensor.Tensor{}, err
	}

	start := time.Now()
	arr = nabla(gamma, m.coords, t)
	sig := append(tensor.Signature{tensor.Down(d.Label)}, t.Signature...)
	if d.Raised {
		ginv, err := m.InverseArray()
		if err != nil {
			return tensor.Tensor{}, err
		}
		arr = tensor.Dot(ginv, arr, 1, 0)
		sig[0] = tensor.Up(d.Label)
	}

	out, err := e.traceDerivative(m, tensor.Tensor{Array: arr, Signature: sig})
	if err != nil {
		return tensor.Tensor{}, err
	}
	e.stage("covariant_derivative", m, start)
	return out.Simplify(), nil
}

// nabla builds the lower-index derivative with axes [d, slots of t...].
func nabla(gamma *tensor.Array, coords []string, t tensor.Tensor) *tensor.Array {
	r := t.Rank()
	out := t.Array.Gradient(coords).RotatePrefix(r + 1)
	for p, idx := range t.Signature {
		perm := make([]int, r+1)
		switch idx.Variance {
		case tensor.Upper:
			// Γ^{a_p}_{dλ} T^{..λ..}: axes [a_p, d, rest of t]
			x := tensor.Dot(gamma, t.Array, 2, p)
			perm[0] = 1
			for k := 0; k < r; k++ {
				switch {
				case k < p:
					perm[k+1] = 2 + k
				case k == p:
					perm[k+1] = 0
				default:
					perm[k+1] = 1 + k
				}
			}
			out = out.Add(x.Permute(perm...))
		case tensor.Lower:
			// Γ^λ_{d b_p} T_{..λ..}: axes [d, b_p, rest of t]
			x := tensor.Dot(gamma, t.Array, 0, p)
			perm[0] = 0
			for k := 0; k < r; k++ {
				switch {
				case k < p:
					perm[k+1] = 2 + k
				case k == p:
					perm[k+1] = 1
				default:
					perm[k+1] = 1 + k
				}
			}
			out = out.Sub(x.Permute(perm...))
		}
	}
	return out
}

// traceDerivative contracts slot 0 with the tensor slot sharing its label,
// if any.
func (e *Engine) traceDerivative(m Metric, t tensor.Tensor) (tensor.Tensor, error) {
	lead := t.Signature[0]
	match := -1
	for p := 1; p < len(t.Signature); p++ {
		if t.Signature[p].Label == lead.Label {
			match = p
			break
		}
	}
	if match < 0 {
		return t, nil
	}
	arr := t.Array
	if t.Signature[match].Variance == lead.Variance {
		flip := m.Array()
		if lead.Variance == tensor.Lower {
			ginv, err := m.InverseArray()
			if err != nil {
				return tensor.Tensor{}, err
			}
			flip = ginv
		}
		arr = tensor.Dot(flip, arr, 1, 0)
	}
	return tensor.Tensor{Array: arr.Trace(0, match), Signature: t.Signature.Without(0, match)}, nil
}
