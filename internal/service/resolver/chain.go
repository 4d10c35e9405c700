package resolver

import (
	"errors"
	"fmt"

	"github.com/zhouzirui/askbot/backend/internal/analysis/intent"
	"github.com/zhouzirui/askbot/backend/internal/model/answer"
)

// Fixed user-visible messages for terminal chain positions.
const (
	ExhaustedText = "There was an error processing your request. Please try again later."

	NoAnswerText   = "I'm sorry, I couldn't find an answer to that."
	NoJokeText     = "I couldn't find a joke right now."
	JokeErrorText  = "There was an error fetching the joke."
	FactErrorText  = "There was an error fetching an interesting fact."
	QuoteErrorText = "There was an error fetching a motivational quote."
)

// Terminal is the fixed reply of the last step of a chain.
type Terminal struct {
	EmptyText   string
	FailureText string
}

// Text picks the message for a non-successful result.
func (t Terminal) Text(res answer.Result) string {
	if res.Status == answer.StatusEmpty {
		return t.EmptyText
	}
	return t.FailureText
}

// Step is one position in a chain.
type Step struct {
	Provider answer.ProviderID
	Terminal *Terminal
}

// Chains maps each intent to its ordered fallback sequence.
type Chains map[intent.Intent][]Step

var (
	errEmptyChain        = errors.New("chain is empty")
	errMissingTerminal   = errors.New("last step must be terminal")
	errMisplacedTerminal = errors.New("only the last step may be terminal")
)

// DefaultChains returns the production routing table.
func DefaultChains() Chains {
	searchTail := []Step{
		{Provider: answer.ProviderWebAnswer},
		{Provider: answer.ProviderSearchFallback1},
		{Provider: answer.ProviderSearchFallback2, Terminal: &Terminal{EmptyText: NoAnswerText, FailureText: ExhaustedText}},
	}

	return Chains{
		intent.Location: append([]Step{{Provider: answer.ProviderLocation}}, searchTail...),
		intent.Joke: {
			{Provider: answer.ProviderJoke, Terminal: &Terminal{EmptyText: NoJokeText, FailureText: JokeErrorText}},
		},
		intent.InterestingFact: {
			{Provider: answer.ProviderFact, Terminal: &Terminal{EmptyText: FactErrorText, FailureText: FactErrorText}},
		},
		intent.Motivation: {
			{Provider: answer.ProviderQuote, Terminal: &Terminal{EmptyText: QuoteErrorText, FailureText: QuoteErrorText}},
		},
		intent.General: append([]Step(nil), searchTail...),
	}
}

// Validate checks that every chain is non-empty and ends, and only ends, in a terminal step.
func (c Chains) Validate() error {
	for in, steps := range c {
		if len(steps) == 0 {
			return fmt.Errorf("intent %s: %w", in, errEmptyChain)
		}
		for i, step := range steps {
			last := i == len(steps)-1
			if last && step.Terminal == nil {
				return fmt.Errorf("intent %s: %w", in, errMissingTerminal)
			}
			if !last && step.Terminal != nil {
				return fmt.Errorf("intent %s step %d: %w", in, i, errMisplacedTerminal)
			}
		}
	}
	return nil
}

// Providers lists the provider ids of the chain for in, in order.
func (c Chains) Providers(in intent.Intent) []answer.ProviderID {
	steps := c[in]
	ids := make([]answer.ProviderID, 0, len(steps))
	for _, step := range steps {
		ids = append(ids, step.Provider)
	}
	return ids
}
