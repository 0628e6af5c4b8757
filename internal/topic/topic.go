// Package topic maps free text to a coarse topic category via ordered keyword
// matching. The result depends only on the text and the fixed keyword table,
// never on conversation history, so extraction is fully deterministic.
package topic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Topic is one of the fixed topic categories, or [None].
type Topic string

const (
	None     Topic = ""
	Service  Topic = "service"
	Product  Topic = "product"
	Delay    Topic = "delay"
	Price    Topic = "price"
	Quality  Topic = "quality"
	Website  Topic = "website"
	Delivery Topic = "delivery"
	Feature  Topic = "feature"
)

// DisplayName returns the form of the topic substituted into response
// templates ("price" reads better as "pricing" in a sentence).
func (t Topic) DisplayName() string {
	if t == Price {
		return "pricing"
	}
	return string(t)
}

// entry pairs a topic with its keyword list. Keywords are matched as
// case-insensitive substrings in declaration order.
type entry struct {
	topic    Topic
	keywords []string
}

// table is the fixed ordered topic table. Scan order is part of the contract:
// earlier topics win when a message mentions several.
var table = []entry{
	{Service, []string{"service", "support", "help", "assistance", "customer service"}},
	{Product, []string{"product", "item", "purchase", "order", "bought"}},
	{Delay, []string{"delay", "wait", "waiting", "slow", "long time", "forever"}},
	{Price, []string{"price", "cost", "expensive", "cheap", "money", "refund", "charge"}},
	{Quality, []string{"quality", "broken", "defective", "damaged", "doesn't work", "not working"}},
	{Website, []string{"website", "site", "app", "login", "account", "password"}},
	{Delivery, []string{"delivery", "shipping", "shipment", "arrived", "package"}},
	{Feature, []string{"feature", "function", "option", "setting", "button"}},
}

// defaultFuzzyThreshold is the minimum Jaro-Winkler score for a fuzzy keyword
// hit. High on purpose: fuzzy matching exists to absorb single-character
// typos ("pordcut"), not to guess topics.
const defaultFuzzyThreshold = 0.90

// Option is a functional option for [NewExtractor].
type Option func(*Extractor)

// WithFuzzyMatching enables a Jaro-Winkler fallback pass: when no keyword is
// a substring of the text, each whitespace-separated word is compared against
// each keyword and the first keyword scoring at or above threshold wins.
// Pass threshold 0 to use the default 0.90.
//
// The fallback is off by default; with it enabled extraction is still a pure
// function of text and table.
func WithFuzzyMatching(threshold float64) Option {
	return func(e *Extractor) {
		e.fuzzy = true
		if threshold > 0 {
			e.fuzzyThreshold = threshold
		}
	}
}

// Extractor scans the fixed topic table. The zero value is not usable; create
// one with [NewExtractor]. Safe for concurrent use — read-only after
// construction.
type Extractor struct {
	fuzzy          bool
	fuzzyThreshold float64
}

// NewExtractor returns an Extractor configured with the supplied options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{fuzzyThreshold: defaultFuzzyThreshold}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the first topic whose keyword occurs as a case-insensitive
// substring of text, scanning topics and their keywords in declared order.
// No match returns [None].
func (e *Extractor) Extract(text string) Topic {
	lower := strings.ToLower(text)

	for _, ent := range table {
		for _, kw := range ent.keywords {
			if strings.Contains(lower, kw) {
				return ent.topic
			}
		}
	}

	if e.fuzzy {
		return e.extractFuzzy(lower)
	}
	return None
}

// extractFuzzy compares each word of the message against each keyword using
// Jaro-Winkler similarity, in the same table order as the exact pass.
// Multi-word keywords are skipped — a typo in a phrase still leaves the other
// words matchable on their own.
func (e *Extractor) extractFuzzy(lower string) Topic {
	words := strings.Fields(lower)
	for _, ent := range table {
		for _, kw := range ent.keywords {
			if strings.ContainsRune(kw, ' ') {
				continue
			}
			for _, w := range words {
				if matchr.JaroWinkler(w, kw, false) >= e.fuzzyThreshold {
					return ent.topic
				}
			}
		}
	}
	return None
}
