package config

import (
	"fmt"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// MetricFile describes a metric in YAML:
//
//	name: schwarzschild
//	coords: [t, r, θ, φ]
//	diagonal: ["-(1 - 2*M/r)", "1/(1 - 2*M/r)", "r^2", "r^2*sin(θ)^2"]
//
// A full matrix is given as rows under `metric` instead of `diagonal`.
// Params only documents the free symbols.
type MetricFile struct {
	Name     string            `yaml:"name"`
	Coords   []string          `yaml:"coords" validate:"required,min=1,unique,dive,required"`
	Metric   [][]string        `yaml:"metric" validate:"required_without=Diagonal,excluded_with=Diagonal,omitempty,dive,min=1"`
	Diagonal []string          `yaml:"diagonal" validate:"required_without=Metric,omitempty,dive,required"`
	Params   map[string]string `yaml:"params"`
}

// LoadMetric reads and validates a metric file.
func LoadMetric(path string) (MetricFile, error) {
	var mf MetricFile
	if err := decodeFile(path, &mf); err != nil {
		return MetricFile{}, err
	}
	return mf, nil
}

// ParseMetric decodes a metric description from YAML bytes.
func ParseMetric(data []byte) (MetricFile, error) {
	var mf MetricFile
	if err := decode(data, "metric", &mf); err != nil {
		return MetricFile{}, err
	}
	return mf, nil
}

// Build parses the entries and constructs the metric.
func (mf MetricFile) Build() (geometry.Metric, error) {
	if len(mf.Diagonal) > 0 {
		diag := make([]symbolic.Expr, len(mf.Diagonal))
		for i, s := range mf.Diagonal {
			e, err := symbolic.Parse(s)
			if err != nil {
				return geometry.Metric{}, fmt.Errorf("diagonal[%d]: %w", i, err)
			}
			diag[i] = e
		}
		return geometry.DiagonalMetric(mf.Coords, diag...)
	}
	rows := make([][]symbolic.Expr, len(mf.Metric))
	for i, row := range mf.Metric {
		rows[i] = make([]symbolic.Expr, len(row))
		for j, s := range row {
			e, err := symbolic.Parse(s)
			if err != nil {
				return geometry.Metric{}, fmt.Errorf("metric[%d][%d]: %w", i, j, err)
			}
			rows[i][j] = e
		}
	}
	g, err := symbolic.MatrixFromRows(rows)
	if err != nil {
		return geometry.Metric{}, fmt.Errorf("%w: %v", geometry.ErrDimensionMismatch, err)
	}
	return geometry.NewMetric(g, mf.Coords)
}

// TensorFile describes a tensor in YAML:
//
//	signature: ["^a"]
//	entries: ["r^2", "sin(θ)"]
//
// Shape defaults to the coordinate dimension on every slot.
type TensorFile struct {
	Signature []string `yaml:"signature" validate:"dive,required"`
	Shape     []int    `yaml:"shape" validate:"omitempty,dive,gt=0"`
	Entries   []string `yaml:"entries" validate:"required,min=1,dive,required"`
}

// LoadTensor reads and validates a tensor file.
func LoadTensor(path string) (TensorFile, error) {
	var tf TensorFile
	if err := decodeFile(path, &tf); err != nil {
		return TensorFile{}, err
	}
	return tf, nil
}

// Build constructs the tensor over an n-dimensional coordinate basis.
func (tf TensorFile) Build(n int) (tensor.Tensor, error) {
	sig := make(tensor.Signature, len(tf.Signature))
	for i, s := range tf.Signature {
		idx, err := tensor.ParseIndex(s)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("signature[%d]: %w", i, err)
		}
		sig[i] = idx
	}
	shape := tf.Shape
	if shape == nil {
		shape = make([]int, len(sig))
		for i := range shape {
			shape[i] = n
		}
	}
	entries := make([]symbolic.Expr, len(tf.Entries))
	for i, s := range tf.Entries {
		e, err := symbolic.Parse(s)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries[i] = e
	}
	arr, err := tensor.FromSlice(shape, entries)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("%w: %v", tensor.ErrDimensionMismatch, err)
	}
	return tensor.New(arr, sig...)
}
