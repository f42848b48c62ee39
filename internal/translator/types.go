package translator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCountMismatch is returned when a provider answers with a different number
// of translations than it was given texts.
var ErrCountMismatch = errors.New("translation count mismatch")

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

// BatchTranslator translates an ordered list of texts in a single request.
// The result has the same length and order as texts.
type BatchTranslator interface {
	Name() string
	TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error)
}

// New returns the provider called name, or nil when name is "" or "none".
func New(name string, cfg ServiceConfig) (BatchTranslator, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "google":
		return NewGoogleService(cfg), nil
	case "systran":
		return NewSystranService(cfg), nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", name)
	}
}

func checkCount(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s: %w: got %d, want %d", name, ErrCountMismatch, got, want)
	}
	return nil
}
