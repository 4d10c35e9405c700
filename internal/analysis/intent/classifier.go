package intent

import (
	"regexp"
	"strings"
)

// Intent 表示用户问题的分类结果，决定使用哪条回退链。
type Intent string

const (
	Location        Intent = "location"
	Joke            Intent = "joke"
	InterestingFact Intent = "interesting_fact"
	Motivation      Intent = "motivation"
	General         Intent = "general"
)

// DefaultLocationKeywords 触发地理位置查询的关键词。
var DefaultLocationKeywords = []string{"where", "location", "capital of"}

var (
	jokePattern       = regexp.MustCompile(`(?i)joke`)
	factPattern       = regexp.MustCompile(`(?i)interesting fact`)
	motivationPattern = regexp.MustCompile(`(?i)motivation|quote`)
)

// Classifier 按固定优先级匹配规则，第一个命中的规则决定意图。
type Classifier struct {
	locationKeywords []string
}

// NewClassifier 使用给定的地理关键词创建分类器，为空时使用默认关键词。
func NewClassifier(locationKeywords []string) *Classifier {
	keywords := make([]string, 0, len(locationKeywords))
	for _, word := range locationKeywords {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			keywords = append(keywords, word)
		}
	}
	if len(keywords) == 0 {
		keywords = append(keywords, DefaultLocationKeywords...)
	}
	return &Classifier{locationKeywords: keywords}
}

var defaultClassifier = NewClassifier(nil)

// Classify 使用默认关键词对问题分类。
func Classify(query string) Intent {
	return defaultClassifier.Classify(query)
}

// Classify 返回问题的意图，总是返回一个值。
func (c *Classifier) Classify(query string) Intent {
	switch {
	case c.isLocation(query):
		return Location
	case jokePattern.MatchString(query):
		return Joke
	case factPattern.MatchString(query):
		return InterestingFact
	case motivationPattern.MatchString(query):
		return Motivation
	default:
		return General
	}
}

func (c *Classifier) isLocation(query string) bool {
	normalized := strings.ToLower(query)
	for _, word := range c.locationKeywords {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}
