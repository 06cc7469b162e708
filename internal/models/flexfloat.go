package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat is a float field that tolerates the shapes the mood views have
// actually produced over time:
// - JSON number: Valid=true, Value set
// - numeric string ("0.4"): Valid=true, Value set
// - null, absent, or garbage: Valid=false, Value=0
//
// Unparseable input deliberately does not error; a missing mood reading
// degrades to "no data" rather than failing the whole join.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements custom JSON unmarshaling for FlexFloat.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	f.Valid = false
	f.Value = 0

	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return nil
		}
		f.Value = v
		f.Valid = true
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	f.Value = v
	f.Valid = true
	return nil
}

// MarshalJSON implements custom JSON marshaling for FlexFloat.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// ToPtr converts FlexFloat to *float64 for use with pointer-based models.
// Returns nil if Valid is false, otherwise returns pointer to Value.
func (f FlexFloat) ToPtr() *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Value
}
