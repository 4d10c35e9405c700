package provider

import "github.com/zhouzirui/askbot/backend/internal/model/answer"

// Endpoints overrides upstream base URLs. Empty fields use the public endpoints.
type Endpoints struct {
	Nominatim    string
	DuckDuckGo   string
	Bing         string
	Wikipedia    string
	JokeAPI      string
	UselessFacts string
	Quotable     string
}

// NewSet builds every adapter, keyed by provider id. All adapters share opts,
// so a single http.Client is reused across the set.
func NewSet(endpoints Endpoints, opts Options) map[answer.ProviderID]Adapter {
	adapters := []Adapter{
		NewNominatim(endpoints.Nominatim, opts),
		NewDuckDuckGo(endpoints.DuckDuckGo, opts),
		NewBing(endpoints.Bing, opts),
		NewWikipedia(endpoints.Wikipedia, opts),
		NewJokeAPI(endpoints.JokeAPI, opts),
		NewUselessFacts(endpoints.UselessFacts, opts),
		NewQuotable(endpoints.Quotable, opts),
	}

	set := make(map[answer.ProviderID]Adapter, len(adapters))
	for _, a := range adapters {
		set[a.ID()] = a
	}
	return set
}
