package oracle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Client is the generation oracle. GeneratePlan returns a validated plan
// response; ProposeModifications returns the oracle's raw text, which the
// refinement parser validates against the modification grammar.
type Client interface {
	GeneratePlan(ctx context.Context, req *PlanRequest) (*PlanResponse, error)
	ProposeModifications(ctx context.Context, req *RefineRequest) (string, error)
}

// Provider names a supported oracle backend.
type Provider string

const ProviderGemini Provider = "gemini"

// Config selects and configures the oracle backend.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewClient builds the configured oracle client.
func NewClient(cfg Config, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiOracle(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
}
