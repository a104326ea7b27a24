package classify

import (
	"regexp"
	"strings"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// Rule maps a structural text predicate over the raw line to an ErrorKind.
type Rule struct {
	// ID names the rule in transition logs and audit rows.
	ID string

	// Match reports whether the raw line triggers this rule.
	Match func(raw string) bool

	Kind domain.ErrorKind
}

// Substring builds a rule that fires when the raw line contains needle.
func Substring(id, needle string, kind domain.ErrorKind) Rule {
	return Rule{
		ID:   id,
		Kind: kind,
		Match: func(raw string) bool {
			return strings.Contains(raw, needle)
		},
	}
}

// Pattern builds a rule that fires when the raw line matches the given
// regular expression. The expression must compile; rules are declared
// statically, so a bad pattern is a programming error.
func Pattern(id, expr string, kind domain.ErrorKind) Rule {
	re := regexp.MustCompile(expr)
	return Rule{
		ID:   id,
		Kind: kind,
		Match: func(raw string) bool {
			return re.MatchString(raw)
		},
	}
}

// DefaultRules is the shipped rule table for the MobileTouch log.
//
// Order is a contract, not an implementation detail: rules are evaluated
// top to bottom and the first match wins. The exact trigger strings come
// first; the broader object-store pattern last, so a line carrying both a
// specific signature and generic store noise classifies by the specific one.
func DefaultRules() []Rule {
	return []Rule{
		Substring(
			"reftables-load-fail",
			"storeAction() fail: LoadAll:getAllReferenceTables",
			domain.KindReferenceTableCorrupt,
		),
		Substring(
			"deviceinfo-load-fail",
			"storeAction() fail: LoadByKey:getDeviceInfo",
			domain.KindDeviceInfoInvalid,
		),
		Substring(
			"schema-init-fail",
			"init schema: error: Internal error",
			domain.KindCorruptSchema,
		),
		Substring(
			"stores-not-set-up",
			"Stores not correctly set up, db",
			domain.KindStoresNotCorrectlySetUp,
		),
		Pattern(
			"object-store-open-fail",
			`object store '[^']+' could not be opened`,
			domain.KindStoresNotCorrectlySetUp,
		),
	}
}
