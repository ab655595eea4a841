package entity

import "time"

// ISOLayout is the canonical timestamp format for every persisted item:
// UTC, millisecond precision, literal Z suffix. Validation requires that
// stored timestamps round-trip through this layout byte for byte.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// NowISO returns the current time formatted with ISOLayout.
func NowISO() string {
	return time.Now().UTC().Format(ISOLayout)
}

// ParseISO parses a timestamp produced by NowISO. Strings that parse but
// do not reproduce themselves when re-formatted (partially valid dates,
// missing milliseconds, non-UTC offsets) are rejected.
func ParseISO(s string) (time.Time, bool) {
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	if t.UTC().Format(ISOLayout) != s {
		return time.Time{}, false
	}
	return t, true
}

// Base carries the key attributes and bookkeeping fields shared by every
// item in the table. Entity structs embed it and expose it through Meta.
type Base struct {
	PK     string `dynamodbav:"PK" json:"PK"`
	SK     string `dynamodbav:"SK" json:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK,omitempty" json:"GSI1PK,omitempty"`
	GSI1SK string `dynamodbav:"GSI1SK,omitempty" json:"GSI1SK,omitempty"`
	GSI2PK string `dynamodbav:"GSI2PK,omitempty" json:"GSI2PK,omitempty"`
	GSI2SK string `dynamodbav:"GSI2SK,omitempty" json:"GSI2SK,omitempty"`
	GSI3PK string `dynamodbav:"GSI3PK,omitempty" json:"GSI3PK,omitempty"`
	GSI3SK string `dynamodbav:"GSI3SK,omitempty" json:"GSI3SK,omitempty"`
	GSI4PK string `dynamodbav:"GSI4PK,omitempty" json:"GSI4PK,omitempty"`
	GSI4SK string `dynamodbav:"GSI4SK,omitempty" json:"GSI4SK,omitempty"`

	EntityType string `dynamodbav:"entityType" json:"entityType"`
	Version    int    `dynamodbav:"version" json:"version"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt  string `dynamodbav:"updatedAt" json:"updatedAt"`
	TTL        int64  `dynamodbav:"ttl,omitempty" json:"ttl,omitempty"`
}

// Meta returns the embedded Base so generic code can stamp keys,
// versions and timestamps without knowing the concrete entity type.
func (b *Base) Meta() *Base { return b }

// Entity is implemented by every persisted entity struct.
type Entity interface {
	Meta() *Base
}
