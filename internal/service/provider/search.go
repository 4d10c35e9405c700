package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/zhouzirui/askbot/backend/internal/model/answer"
)

const (
	NominatimURL  = "https://nominatim.openstreetmap.org/search"
	DuckDuckGoURL = "https://api.duckduckgo.com/"
	BingURL       = "https://api.bing.com/osjson.aspx"
	WikipediaURL  = "https://en.wikipedia.org/w/api.php"
)

// Nominatim resolves place names through OpenStreetMap geocoding.
type Nominatim struct {
	baseURL string
	client  *jsonClient
}

// NewNominatim creates the location adapter. An empty baseURL uses the public endpoint.
func NewNominatim(baseURL string, opts Options) *Nominatim {
	return &Nominatim{baseURL: orDefault(baseURL, NominatimURL), client: newJSONClient(opts)}
}

func (n *Nominatim) ID() answer.ProviderID { return answer.ProviderLocation }

// Fetch returns the first match's display name followed by a period.
func (n *Nominatim) Fetch(ctx context.Context, query string) answer.Result {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var places []struct {
		DisplayName string `json:"display_name"`
	}
	if err := n.client.getJSON(ctx, n.baseURL, params, &places); err != nil {
		return n.client.fail(n.ID(), err)
	}
	if len(places) == 0 {
		return answer.Empty()
	}
	return answer.Success(places[0].DisplayName + ".")
}

// DuckDuckGo reads the instant-answer abstract.
type DuckDuckGo struct {
	baseURL string
	client  *jsonClient
}

// NewDuckDuckGo creates the web-answer adapter.
func NewDuckDuckGo(baseURL string, opts Options) *DuckDuckGo {
	return &DuckDuckGo{baseURL: orDefault(baseURL, DuckDuckGoURL), client: newJSONClient(opts)}
}

func (d *DuckDuckGo) ID() answer.ProviderID { return answer.ProviderWebAnswer }

func (d *DuckDuckGo) Fetch(ctx context.Context, query string) answer.Result {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("pretty", "1")

	var payload struct {
		AbstractText string `json:"AbstractText"`
	}
	if err := d.client.getJSON(ctx, d.baseURL, params, &payload); err != nil {
		return d.client.fail(d.ID(), err)
	}
	return answer.Success(payload.AbstractText)
}

// Bing uses the OpenSearch suggestion endpoint, whose body is [query, [suggestions...]].
type Bing struct {
	baseURL string
	client  *jsonClient
}

// NewBing creates the first search fallback.
func NewBing(baseURL string, opts Options) *Bing {
	return &Bing{baseURL: orDefault(baseURL, BingURL), client: newJSONClient(opts)}
}

func (b *Bing) ID() answer.ProviderID { return answer.ProviderSearchFallback1 }

func (b *Bing) Fetch(ctx context.Context, query string) answer.Result {
	params := url.Values{}
	params.Set("query", query)

	var payload []json.RawMessage
	if err := b.client.getJSON(ctx, b.baseURL, params, &payload); err != nil {
		return b.client.fail(b.ID(), err)
	}
	if len(payload) < 2 {
		return answer.Empty()
	}

	var suggestions []string
	if err := json.Unmarshal(payload[1], &suggestions); err != nil {
		return b.client.fail(b.ID(), fmt.Errorf("%w: suggestions: %v", answer.ErrParse, err))
	}
	if len(suggestions) == 0 {
		return answer.Empty()
	}
	return answer.Success(suggestions[0])
}

// Wikipedia runs a full-text search and returns the first hit's snippet as plain text.
type Wikipedia struct {
	baseURL string
	client  *jsonClient
}

// NewWikipedia creates the last search fallback.
func NewWikipedia(baseURL string, opts Options) *Wikipedia {
	return &Wikipedia{baseURL: orDefault(baseURL, WikipediaURL), client: newJSONClient(opts)}
}

func (w *Wikipedia) ID() answer.ProviderID { return answer.ProviderSearchFallback2 }

func (w *Wikipedia) Fetch(ctx context.Context, query string) answer.Result {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("format", "json")
	params.Set("origin", "*")

	var payload struct {
		Query *struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := w.client.getJSON(ctx, w.baseURL, params, &payload); err != nil {
		return w.client.fail(w.ID(), err)
	}
	if payload.Query == nil {
		return w.client.fail(w.ID(), fmt.Errorf("%w: missing query object", answer.ErrParse))
	}
	if len(payload.Query.Search) == 0 {
		return answer.Empty()
	}
	return answer.Success(StripMarkup(payload.Query.Search[0].Snippet))
}

// StripMarkup drops HTML tags and comments from s and decodes &quot;.
// Other entities are kept as written.
func StripMarkup(s string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF; a strings.Reader cannot fail otherwise.
			return strings.ReplaceAll(sb.String(), "&quot;", `"`)
		case html.TextToken:
			sb.Write(z.Raw())
		}
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
