// Package validate checks items against the single-table conventions
// before they reach the store: structural key attributes first, then
// timestamp consistency, then entity-specific field rules. Errors block
// writes; warnings are surfaced but never block.
package validate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/entity"
)

// Engine validates documents by entity type. The zero registry only
// performs structural and consistency checks; NewEngine installs the
// rule sets for the built-in entity types.
type Engine struct {
	rules map[string][]Rule
	log   zerolog.Logger
}

// NewEngine returns an engine with the built-in entity rules registered.
func NewEngine(log zerolog.Logger) *Engine {
	e := &Engine{
		rules: make(map[string][]Rule),
		log:   log.With().Str("component", "validate").Logger(),
	}
	for entityType, rules := range builtinRules() {
		e.rules[entityType] = rules
	}
	return e
}

// Register installs or replaces the rule set for an entity type.
func (e *Engine) Register(entityType string, rules []Rule) {
	e.rules[entityType] = rules
}

// Validate runs all three validation layers over a document. When the
// structural key check fails the remaining layers are skipped, since
// field rules over a malformed item only produce noise.
func (e *Engine) Validate(doc map[string]any) *Result {
	res := &Result{}

	e.validateKeys(doc, res)
	if !res.Valid() {
		return res
	}

	e.validateConsistency(doc, res)

	entityType, _ := doc["entityType"].(string)
	if rules, found := e.rules[entityType]; found {
		evaluate(doc, rules, res)
	}

	if len(res.Warnings) > 0 {
		e.log.Debug().
			Str("entity_type", entityType).
			Int("warnings", len(res.Warnings)).
			Msg("item validated with warnings")
	}
	return res
}

// ValidateEntity converts a typed entity to its document form and runs
// Validate on it.
func (e *Engine) ValidateEntity(ent entity.Entity) (*Result, error) {
	doc, err := DocumentOf(ent)
	if err != nil {
		return nil, err
	}
	return e.Validate(doc), nil
}

// validateKeys checks the attributes every item must carry regardless of
// entity type.
func (e *Engine) validateKeys(doc map[string]any, res *Result) {
	for _, field := range []string{"PK", "SK", "entityType"} {
		s, isStr := doc[field].(string)
		if !isStr || s == "" {
			res.add(field, field+" is required and must be a non-empty string", SeverityError)
		}
	}

	version, found := doc["version"]
	n, isNum := asNumber(version)
	if !found || !isNum || n < 0 || n != float64(int64(n)) {
		res.add("version", "version must be a non-negative integer", SeverityError)
	}

	for _, field := range []string{"createdAt", "updatedAt"} {
		s, isStr := doc[field].(string)
		if !isStr || s == "" {
			res.add(field, field+" is required", SeverityError)
			continue
		}
		if _, ok := entity.ParseISO(s); !ok {
			res.add(field, field+" must be a canonical ISO-8601 timestamp", SeverityError)
		}
	}
}

// validateConsistency cross-checks bookkeeping fields that passed the
// structural layer.
func (e *Engine) validateConsistency(doc map[string]any, res *Result) {
	created, createdOK := entity.ParseISO(doc["createdAt"].(string))
	updated, updatedOK := entity.ParseISO(doc["updatedAt"].(string))
	if createdOK && updatedOK && created.After(updated) {
		res.add("createdAt", "createdAt must not be later than updatedAt", SeverityError)
	}

	if ttl, found := doc["ttl"]; found {
		if n, isNum := asNumber(ttl); isNum && int64(n) < time.Now().Unix() {
			res.add("ttl", "ttl is in the past; the item is eligible for expiry", SeverityWarning)
		}
	}
}

// DocumentOf renders a value as the generic document form the engine
// operates on, via a JSON round trip. Numbers come back as float64,
// which the numeric checks accept.
func DocumentOf(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("validate: encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("validate: decode document: %w", err)
	}
	return doc, nil
}
