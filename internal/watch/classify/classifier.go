// Package classify maps raw log lines to the closed error-kind taxonomy
// via an ordered rule table.
package classify

import (
	"github.com/communityambulance/mtrepair/internal/core/domain"
	"github.com/communityambulance/mtrepair/internal/watch/metrics"
)

// Classifier evaluates rules in declaration order; the first match wins.
// Each line is judged independently — no multi-line correlation.
type Classifier struct {
	rules []Rule
}

// New creates a Classifier over the given ordered rule table.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the ClassifiedEvent for the first matching rule, or
// false when no rule matches. Non-matching lines are expected in volume
// and are not errors.
func (c *Classifier) Classify(ev domain.LogEvent) (domain.ClassifiedEvent, bool) {
	for _, rule := range c.rules {
		if rule.Match(ev.Raw) {
			metrics.LinesClassified.WithLabelValues(string(rule.Kind), rule.ID).Inc()
			return domain.ClassifiedEvent{
				Event:  ev,
				Kind:   rule.Kind,
				RuleID: rule.ID,
			}, true
		}
	}
	metrics.LinesUnmatched.Inc()
	return domain.ClassifiedEvent{}, false
}
