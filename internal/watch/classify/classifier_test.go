package classify

import (
	"testing"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

func event(raw string) domain.LogEvent {
	return domain.LogEvent{Raw: raw, Message: raw}
}

func TestClassify_DefaultRules(t *testing.T) {
	c := New(DefaultRules())

	cases := []struct {
		raw  string
		kind domain.ErrorKind
		rule string
	}{
		{
			"2025-05-26 09:33:40,383 ERROR storeAction() fail: LoadAll:getAllReferenceTables",
			domain.KindReferenceTableCorrupt,
			"reftables-load-fail",
		},
		{
			"2025-05-26 09:33:40,383 ERROR storeAction() fail: LoadByKey:getDeviceInfo",
			domain.KindDeviceInfoInvalid,
			"deviceinfo-load-fail",
		},
		{
			"2025-05-26 09:33:40,383 ERROR init schema: error: Internal error",
			domain.KindCorruptSchema,
			"schema-init-fail",
		},
		{
			"2025-05-26 09:33:40,383 ERROR Stores not correctly set up, db v9",
			domain.KindStoresNotCorrectlySetUp,
			"stores-not-set-up",
		},
		{
			"ERROR: object store 'charts' could not be opened",
			domain.KindStoresNotCorrectlySetUp,
			"object-store-open-fail",
		},
	}

	for _, tc := range cases {
		ce, ok := c.Classify(event(tc.raw))
		if !ok {
			t.Errorf("expected match for %q", tc.raw)
			continue
		}
		if ce.Kind != tc.kind {
			t.Errorf("%q: expected kind %s, got %s", tc.raw, tc.kind, ce.Kind)
		}
		if ce.RuleID != tc.rule {
			t.Errorf("%q: expected rule %s, got %s", tc.raw, tc.rule, ce.RuleID)
		}
	}
}

func TestClassify_BenignLinesProduceNothing(t *testing.T) {
	c := New(DefaultRules())

	benign := []string{
		"2025-05-26 09:33:40,383 INFO JS API: getNativeVersion returned: 2023.2.208",
		"2025-05-26 09:33:41,000 DEBUG heartbeat",
		"",
	}
	for _, raw := range benign {
		if _, ok := c.Classify(event(raw)); ok {
			t.Errorf("expected no match for %q", raw)
		}
	}
}

func TestClassify_AtMostOneResultEarlierRuleWins(t *testing.T) {
	// Two overlapping rules: the broader one is declared first here, so it
	// must win even though the narrower one also matches.
	rules := []Rule{
		Substring("broad", "store", domain.KindStoresNotCorrectlySetUp),
		Substring("narrow", "object store 'charts'", domain.KindCorruptSchema),
	}
	c := New(rules)

	ce, ok := c.Classify(event("object store 'charts' could not be opened"))
	if !ok {
		t.Fatal("expected a match")
	}
	if ce.RuleID != "broad" {
		t.Errorf("declaration order not honored: matched %s", ce.RuleID)
	}
	if ce.Kind != domain.KindStoresNotCorrectlySetUp {
		t.Errorf("expected kind from earlier rule, got %s", ce.Kind)
	}
}

func TestClassify_SpecificBeforeGenericInDefaults(t *testing.T) {
	c := New(DefaultRules())

	// A line matching both a specific trigger and the generic object-store
	// pattern classifies by the specific rule.
	raw := "ERROR Stores not correctly set up, db: object store 'events' could not be opened"
	ce, ok := c.Classify(event(raw))
	if !ok {
		t.Fatal("expected a match")
	}
	if ce.RuleID != "stores-not-set-up" {
		t.Errorf("expected specific rule to win, got %s", ce.RuleID)
	}
}
