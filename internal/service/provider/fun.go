package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/zhouzirui/askbot/backend/internal/model/answer"
)

const (
	JokeAPIURL      = "https://v2.jokeapi.dev/joke/Any"
	UselessFactsURL = "https://uselessfacts.jsph.pl/random.json"
	QuotableURL     = "https://api.quotable.io/random"

	// absentField is shown in place of a missing fact or quote field.
	// The fact API is trusted to always send its text, so no emptiness check is made.
	absentField = "undefined"
)

// The joke, fact and quote endpoints take no search text; the query argument is ignored.

// JokeAPI fetches a random single-line joke.
type JokeAPI struct {
	baseURL string
	client  *jsonClient
}

func NewJokeAPI(baseURL string, opts Options) *JokeAPI {
	return &JokeAPI{baseURL: orDefault(baseURL, JokeAPIURL), client: newJSONClient(opts)}
}

func (j *JokeAPI) ID() answer.ProviderID { return answer.ProviderJoke }

func (j *JokeAPI) Fetch(ctx context.Context, _ string) answer.Result {
	params := url.Values{}
	params.Set("type", "single")

	var payload struct {
		Joke string `json:"joke"`
	}
	if err := j.client.getJSON(ctx, j.baseURL, params, &payload); err != nil {
		return j.client.fail(j.ID(), err)
	}
	return answer.Success(payload.Joke)
}

// UselessFacts fetches a random English fact.
type UselessFacts struct {
	baseURL string
	client  *jsonClient
}

func NewUselessFacts(baseURL string, opts Options) *UselessFacts {
	return &UselessFacts{baseURL: orDefault(baseURL, UselessFactsURL), client: newJSONClient(opts)}
}

func (u *UselessFacts) ID() answer.ProviderID { return answer.ProviderFact }

func (u *UselessFacts) Fetch(ctx context.Context, _ string) answer.Result {
	params := url.Values{}
	params.Set("language", "en")

	var payload struct {
		Text *string `json:"text"`
	}
	if err := u.client.getJSON(ctx, u.baseURL, params, &payload); err != nil {
		return u.client.fail(u.ID(), err)
	}
	return answer.Success(valueOrAbsent(payload.Text))
}

// Quotable fetches a random inspirational quote.
type Quotable struct {
	baseURL string
	client  *jsonClient
}

func NewQuotable(baseURL string, opts Options) *Quotable {
	return &Quotable{baseURL: orDefault(baseURL, QuotableURL), client: newJSONClient(opts)}
}

func (q *Quotable) ID() answer.ProviderID { return answer.ProviderQuote }

// Fetch formats the quote as the quoted content, a dash, then the author.
func (q *Quotable) Fetch(ctx context.Context, _ string) answer.Result {
	params := url.Values{}
	params.Set("tags", "inspirational")

	var payload struct {
		Content *string `json:"content"`
		Author  *string `json:"author"`
	}
	if err := q.client.getJSON(ctx, q.baseURL, params, &payload); err != nil {
		return q.client.fail(q.ID(), err)
	}
	return answer.Success(fmt.Sprintf("\"%s\" — %s", valueOrAbsent(payload.Content), valueOrAbsent(payload.Author)))
}

func valueOrAbsent(s *string) string {
	if s == nil {
		return absentField
	}
	return *s
}
