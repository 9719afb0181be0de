// Package config loads the YAML files read by gotensor: metric and tensor
// descriptions for the CLI, and the server configuration. Every file is
// decoded strictly and checked with struct validation before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every decoding and validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeFile strictly decodes the YAML file at path into out.
func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return decode(data, path, out)
}

func decode(data []byte, name string, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	return check(name, out)
}

// check runs struct validation and flattens the failures into one error.
func check(name string, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, name, strings.Join(msgs, "; "))
}

// ============================================================
// Server configuration
// ============================================================

// Server configures `gotensor serve`.
type Server struct {
	Addr string `yaml:"addr" validate:"required"`

	// RateLimit is the sustained /tool request rate per second; zero
	// disables rate limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`

	// MaxConcurrent bounds tool calls computing at once.
	MaxConcurrent  int64         `yaml:"max_concurrent" validate:"gte=1"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"gt=0"`

	// CacheEntries bounds the Christoffel cache; zero means unbounded.
	CacheEntries int `yaml:"cache_entries" validate:"gte=0"`

	Log Log `yaml:"log"`
}

// Log selects the log level and format.
type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultServer returns the configuration used when no file is given.
func DefaultServer() Server {
	return Server{
		Addr:           ":8080",
		RateLimit:      20,
		Burst:          40,
		MaxConcurrent:  4,
		RequestTimeout: 30 * time.Second,
		MaxBodyBytes:   1 << 20,
		CacheEntries:   128,
		Log:            Log{Level: "info", Format: "text"},
	}
}

// LoadServer reads path over the defaults. An empty path returns the
// defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if path == "" {
		return cfg, nil
	}
	if err := decodeFile(path, &cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}
