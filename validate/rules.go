package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raywall/single-table-toolkit/entity"
)

// Severity classifies an issue. Errors make an item invalid and block
// writes; warnings are reported but never block.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding against one field of an item.
type Issue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result is the outcome of validating one item. Repeated validation of
// the same item yields the same Result.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Valid reports whether the item may be written. Warnings alone do not
// make an item invalid.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

func (r *Result) add(field, message string, severity Severity) {
	issue := Issue{Field: field, Message: message, Severity: severity}
	if severity == SeverityError {
		r.Errors = append(r.Errors, issue)
	} else {
		r.Warnings = append(r.Warnings, issue)
	}
}

// Check inspects one field value. Checks other than Required are skipped
// when the field is absent, so optional fields are only judged when set.
type Check interface {
	check(v any, present bool) (ok bool, msg string)
}

// Rule binds a field path (dotted for nested fields) to a check and the
// severity of its failure.
type Rule struct {
	Field    string
	Check    Check
	Severity Severity
}

var (
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlRE   = regexp.MustCompile(`^https?://.+`)
	phoneRE = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// Required fails when the field is absent, nil or an empty string.
type Required struct{}

func (Required) check(v any, present bool) (bool, string) {
	if !present || v == nil {
		return false, "is required"
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return false, "is required"
	}
	return true, ""
}

// LengthBetween bounds the length of a string field. A Min of 0 means no
// lower bound.
type LengthBetween struct {
	Min, Max int
}

func (c LengthBetween) check(v any, present bool) (bool, string) {
	if !present {
		return true, ""
	}
	s, isStr := v.(string)
	if !isStr {
		return false, "must be a string"
	}
	if len(s) < c.Min || len(s) > c.Max {
		if c.Min > 0 {
			return false, fmt.Sprintf("must be between %d and %d characters", c.Min, c.Max)
		}
		return false, fmt.Sprintf("must be at most %d characters", c.Max)
	}
	return true, ""
}

// OneOf restricts a string field to a fixed set of values.
type OneOf struct {
	Values []string
}

func (c OneOf) check(v any, present bool) (bool, string) {
	if !present {
		return true, ""
	}
	s, isStr := v.(string)
	if !isStr {
		return false, "must be a string"
	}
	for _, allowed := range c.Values {
		if s == allowed {
			return true, ""
		}
	}
	return false, "must be one of: " + strings.Join(c.Values, ", ")
}

// MatchesPattern requires a string field to match a regular expression.
type MatchesPattern struct {
	Pattern *regexp.Regexp
	Desc    string
}

func (c MatchesPattern) check(v any, present bool) (bool, string) {
	if !present {
		return true, ""
	}
	s, isStr := v.(string)
	if !isStr || !c.Pattern.MatchString(s) {
		return false, "must be " + c.Desc
	}
	return true, ""
}

// Email, URL and Phone are the shared pattern checks.
func Email() Check { return MatchesPattern{Pattern: emailRE, Desc: "a valid email address"} }
func URL() Check   { return MatchesPattern{Pattern: urlRE, Desc: "a valid http(s) URL"} }
func Phone() Check { return MatchesPattern{Pattern: phoneRE, Desc: "a valid phone number"} }

// NumberBetween bounds a numeric field inclusively.
type NumberBetween struct {
	Min, Max float64
}

func (c NumberBetween) check(v any, present bool) (bool, string) {
	if !present {
		return true, ""
	}
	n, isNum := asNumber(v)
	if !isNum {
		return false, "must be a number"
	}
	if n < c.Min || n > c.Max {
		return false, fmt.Sprintf("must be between %v and %v", c.Min, c.Max)
	}
	return true, ""
}

// IsArray requires the field to be a list value.
type IsArray struct{}

func (IsArray) check(v any, present bool) (bool, string) {
	if !present {
		return true, ""
	}
	if _, isList := v.([]any); !isList {
		return false, "must be an array"
	}
	return true, ""
}

// IsTimestamp requires a strict canonical ISO-8601 timestamp.
type IsTimestamp struct{}

func (IsTimestamp) check(v any, present bool) (bool, string) {
	if !present {
		return true, ""
	}
	s, isStr := v.(string)
	if !isStr {
		return false, "must be an ISO-8601 timestamp"
	}
	if _, ok := entity.ParseISO(s); !ok {
		return false, "must be an ISO-8601 timestamp"
	}
	return true, ""
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// lookup resolves a dotted field path against a document. The second
// return reports whether the full path was present.
func lookup(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, part := range parts {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		v, found := m[part]
		if !found {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// evaluate applies rules to a document and records findings on res.
func evaluate(doc map[string]any, rules []Rule, res *Result) {
	for _, rule := range rules {
		v, present := lookup(doc, rule.Field)
		if ok, msg := rule.Check.check(v, present); !ok {
			res.add(rule.Field, rule.Field+" "+msg, rule.Severity)
		}
	}
}
