package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/askbot/backend/internal/analysis/intent"
	"github.com/zhouzirui/askbot/backend/internal/logging"
	"github.com/zhouzirui/askbot/backend/internal/model/answer"
	"github.com/zhouzirui/askbot/backend/internal/service/provider"
)

// Attempt records one adapter invocation.
type Attempt struct {
	Provider answer.ProviderID `json:"provider"`
	Status   answer.Status     `json:"status"`
}

// Resolution is the single displayable outcome of a chain walk.
type Resolution struct {
	Text     string
	Provider answer.ProviderID // empty when the chain was exhausted
	Terminal bool              // Text is a fixed terminal message
	Attempts []Attempt
}

// Resolver walks an intent's chain and stops at the first usable answer.
type Resolver struct {
	chains   Chains
	adapters map[answer.ProviderID]provider.Adapter
	logger   *zap.Logger
}

// New validates chains and binds them to adapters.
func New(chains Chains, adapters map[answer.ProviderID]provider.Adapter, logger *zap.Logger) (*Resolver, error) {
	if err := chains.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chains: %w", err)
	}
	return &Resolver{chains: chains, adapters: adapters, logger: logging.OrNop(logger)}, nil
}

// Resolve invokes the chain for in strictly in order. Empty and failed results
// advance to the next step; a terminal step answers with its fixed message.
// The returned Text is never empty.
func (r *Resolver) Resolve(ctx context.Context, in intent.Intent, query string) Resolution {
	steps := r.chains[in]
	attempts := make([]Attempt, 0, len(steps))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("resolution cancelled", zap.String("intent", string(in)), zap.Error(err))
			break
		}

		adapter, ok := r.adapters[step.Provider]
		if !ok {
			r.logger.Error("no adapter registered", zap.String("provider", string(step.Provider)))
			continue
		}

		res := adapter.Fetch(ctx, query)
		attempts = append(attempts, Attempt{Provider: step.Provider, Status: res.Status})

		if res.OK() {
			return Resolution{Text: res.Text, Provider: step.Provider, Attempts: attempts}
		}

		r.logger.Debug("provider gave no answer",
			zap.String("intent", string(in)),
			zap.String("provider", string(step.Provider)),
			zap.Stringer("status", res.Status),
			zap.Error(res.Err))

		if step.Terminal != nil {
			return Resolution{
				Text:     step.Terminal.Text(res),
				Provider: step.Provider,
				Terminal: true,
				Attempts: attempts,
			}
		}
	}

	return Resolution{Text: ExhaustedText, Terminal: true, Attempts: attempts}
}

// Chain exposes the provider order for in.
func (r *Resolver) Chain(in intent.Intent) []answer.ProviderID {
	return r.chains.Providers(in)
}
