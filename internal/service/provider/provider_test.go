package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zhouzirui/askbot/backend/internal/model/answer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

// upstream serves body with status and records the last request query.
func upstream(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func testOptions(srv *httptest.Server) Options {
	return Options{Client: srv.Client(), Timeout: 2 * time.Second}
}

func TestNominatimFirstDisplayName(t *testing.T) {
	srv, q := upstream(t, http.StatusOK, `[{"display_name":"Paris, Île-de-France, France"},{"display_name":"Paris, Texas"}]`)

	res := NewNominatim(srv.URL, testOptions(srv)).Fetch(context.Background(), "capital of France?")

	require.Equal(t, answer.StatusSuccess, res.Status)
	assert.Equal(t, "Paris, Île-de-France, France.", res.Text)
	assert.Equal(t, "capital of France?", q.Get("q"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "1", q.Get("addressdetails"))
}

func TestNominatimEmptyList(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `[]`)
	res := NewNominatim(srv.URL, testOptions(srv)).Fetch(context.Background(), "nowhere")
	assert.Equal(t, answer.StatusEmpty, res.Status)
	assert.ErrorIs(t, res.Err, answer.ErrEmptyResult)
}

func TestDuckDuckGoAbstract(t *testing.T) {
	srv, q := upstream(t, http.StatusOK, `{"AbstractText":"Go is a programming language."}`)
	res := NewDuckDuckGo(srv.URL, testOptions(srv)).Fetch(context.Background(), "golang")
	require.True(t, res.OK())
	assert.Equal(t, "Go is a programming language.", res.Text)
	assert.Equal(t, "golang", q.Get("q"))
	assert.Equal(t, "1", q.Get("pretty"))
}

func TestDuckDuckGoBlankAbstractIsEmpty(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `{"AbstractText":""}`)
	res := NewDuckDuckGo(srv.URL, testOptions(srv)).Fetch(context.Background(), "zzz")
	assert.Equal(t, answer.StatusEmpty, res.Status)
}

func TestBingSuggestions(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status answer.Status
		text   string
	}{
		{"first suggestion", `["golang",["golang tutorial","golang jobs"]]`, answer.StatusSuccess, "golang tutorial"},
		{"no suggestions", `["golang",[]]`, answer.StatusEmpty, ""},
		{"missing array", `["golang"]`, answer.StatusEmpty, ""},
		{"wrong shape", `["golang",{"a":1}]`, answer.StatusFailure, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, q := upstream(t, http.StatusOK, tc.body)
			res := NewBing(srv.URL, testOptions(srv)).Fetch(context.Background(), "golang")
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.text, res.Text)
			assert.Equal(t, "golang", q.Get("query"))
		})
	}
}

func TestWikipediaSnippetCleaned(t *testing.T) {
	body := `{"query":{"search":[{"title":"Go","snippet":"<span class=\"searchmatch\">Go</span> is &quot;simple&quot; &amp; fast"}]}}`
	srv, q := upstream(t, http.StatusOK, body)

	res := NewWikipedia(srv.URL, testOptions(srv)).Fetch(context.Background(), "go language")

	require.True(t, res.OK())
	assert.Equal(t, `Go is "simple" &amp; fast`, res.Text)
	assert.Equal(t, "go language", q.Get("srsearch"))
	assert.Equal(t, "search", q.Get("list"))
	assert.Equal(t, "*", q.Get("origin"))
}

func TestWikipediaNoHits(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `{"query":{"search":[]}}`)
	res := NewWikipedia(srv.URL, testOptions(srv)).Fetch(context.Background(), "qwertyuiop")
	assert.Equal(t, answer.StatusEmpty, res.Status)
}

func TestWikipediaMissingQueryIsParseFailure(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `{"error":{"code":"badvalue"}}`)
	res := NewWikipedia(srv.URL, testOptions(srv)).Fetch(context.Background(), "x")
	assert.Equal(t, answer.StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, answer.ErrParse)
}

func TestStripMarkup(t *testing.T) {
	cases := map[string]string{
		"plain":                            "plain",
		`<b>bold</b> and <i>it</i>`:        "bold and it",
		`say &quot;hi&quot;`:               `say "hi"`,
		`a <span class="x">b</span><br/>c`: "a bc",
		"":                                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripMarkup(in), "input %q", in)
	}
}

func TestJokeAPI(t *testing.T) {
	srv, q := upstream(t, http.StatusOK, `{"type":"single","joke":"I would tell a UDP joke, but you might not get it."}`)
	res := NewJokeAPI(srv.URL, testOptions(srv)).Fetch(context.Background(), "tell me a joke")
	require.True(t, res.OK())
	assert.Equal(t, "I would tell a UDP joke, but you might not get it.", res.Text)
	assert.Equal(t, "single", q.Get("type"))
}

func TestJokeAPIMissingJokeIsEmpty(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `{"error":true}`)
	res := NewJokeAPI(srv.URL, testOptions(srv)).Fetch(context.Background(), "joke")
	assert.Equal(t, answer.StatusEmpty, res.Status)
}

func TestUselessFacts(t *testing.T) {
	srv, q := upstream(t, http.StatusOK, `{"text":"Honey never spoils."}`)
	res := NewUselessFacts(srv.URL, testOptions(srv)).Fetch(context.Background(), "interesting fact")
	require.True(t, res.OK())
	assert.Equal(t, "Honey never spoils.", res.Text)
	assert.Equal(t, "en", q.Get("language"))
}

func TestUselessFactsMissingTextShowsAbsentMarker(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `{}`)
	res := NewUselessFacts(srv.URL, testOptions(srv)).Fetch(context.Background(), "interesting fact")
	require.True(t, res.OK())
	assert.Equal(t, "undefined", res.Text)
}

func TestQuotableFormatting(t *testing.T) {
	srv, q := upstream(t, http.StatusOK, `{"content":"Stay hungry, stay foolish.","author":"Steve Jobs"}`)
	res := NewQuotable(srv.URL, testOptions(srv)).Fetch(context.Background(), "quote")
	require.True(t, res.OK())
	assert.Equal(t, `"Stay hungry, stay foolish." — Steve Jobs`, res.Text)
	assert.Equal(t, "inspirational", q.Get("tags"))
}

func TestFailuresAreClassified(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		srv, _ := upstream(t, http.StatusServiceUnavailable, `{}`)
		res := NewDuckDuckGo(srv.URL, testOptions(srv)).Fetch(context.Background(), "x")
		assert.Equal(t, answer.StatusFailure, res.Status)
		assert.ErrorIs(t, res.Err, answer.ErrNetwork)
	})

	t.Run("invalid json", func(t *testing.T) {
		srv, _ := upstream(t, http.StatusOK, `<html>nope</html>`)
		res := NewNominatim(srv.URL, testOptions(srv)).Fetch(context.Background(), "x")
		assert.Equal(t, answer.StatusFailure, res.Status)
		assert.ErrorIs(t, res.Err, answer.ErrParse)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()
		res := NewJokeAPI(base, Options{Timeout: time.Second}).Fetch(context.Background(), "joke")
		assert.Equal(t, answer.StatusFailure, res.Status)
		assert.ErrorIs(t, res.Err, answer.ErrNetwork)
	})
}

func TestFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	res := NewDuckDuckGo(srv.URL, Options{Client: srv.Client(), Timeout: 50 * time.Millisecond}).
		Fetch(context.Background(), "slow")

	assert.Equal(t, answer.StatusFailure, res.Status)
	assert.True(t, errors.Is(res.Err, answer.ErrNetwork))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewSetCoversEveryProvider(t *testing.T) {
	set := NewSet(Endpoints{}, Options{})
	for _, id := range []answer.ProviderID{
		answer.ProviderLocation, answer.ProviderWebAnswer, answer.ProviderSearchFallback1,
		answer.ProviderSearchFallback2, answer.ProviderJoke, answer.ProviderFact, answer.ProviderQuote,
	} {
		adapter, ok := set[id]
		require.True(t, ok, "missing adapter %s", id)
		assert.Equal(t, id, adapter.ID())
	}
}
