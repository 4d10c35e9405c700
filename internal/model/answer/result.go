package answer

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks requests that could not complete (transport error, timeout, non-2xx status).
	ErrNetwork = errors.New("network error")
	// ErrParse marks bodies that were not the expected JSON shape.
	ErrParse = errors.New("parse error")
	// ErrEmptyResult marks well-formed responses without a usable answer.
	ErrEmptyResult = errors.New("empty result")
)

// ProviderID names one upstream service.
type ProviderID string

const (
	ProviderLocation        ProviderID = "location"
	ProviderWebAnswer       ProviderID = "web_answer"
	ProviderSearchFallback1 ProviderID = "search_fallback1"
	ProviderSearchFallback2 ProviderID = "search_fallback2"
	ProviderJoke            ProviderID = "joke"
	ProviderFact            ProviderID = "fact"
	ProviderQuote           ProviderID = "quote"
)

// Status tags a Result.
type Status int

const (
	StatusSuccess Status = iota
	StatusEmpty
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText lets Status appear by name in JSON payloads and log fields.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*s = StatusSuccess
	case "empty":
		*s = StatusEmpty
	case "failure":
		*s = StatusFailure
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Result is the normalized outcome of one adapter invocation.
type Result struct {
	Status Status
	Text   string
	Err    error
}

// Success wraps a usable answer. Blank text degrades to Empty.
func Success(text string) Result {
	if text == "" {
		return Empty()
	}
	return Result{Status: StatusSuccess, Text: text}
}

// Empty reports a well-formed response with nothing to show.
func Empty() Result {
	return Result{Status: StatusEmpty, Err: ErrEmptyResult}
}

// Failure reports a request or decoding error.
func Failure(err error) Result {
	if err == nil {
		err = ErrNetwork
	}
	return Result{Status: StatusFailure, Err: err}
}

// OK reports whether the result carries displayable text.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}
