package fpl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// The API serializes decimal stats ("form", "ict_index", expected goals) as
// JSON strings and occasionally as numbers or null. Float and Bool absorb
// those variants in one place so payload structs stay plain.

// Float decodes from a JSON number, a quoted numeric string, or null.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("failed to unquote numeric string %s: %w", s, err)
		}
		if unquoted == "" {
			*f = 0
			return nil
		}
		s = unquoted
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("failed to parse numeric value %q: %w", s, err)
	}
	*f = Float(v)
	return nil
}

func (f Float) Float64() float64 { return float64(f) }

// Bool decodes from a JSON bool, the strings "true"/"false", or 0/1.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = Bool(t)
	case string:
		parsed, err := strconv.ParseBool(t)
		if err != nil {
			return fmt.Errorf("failed to parse boolean value %q: %w", t, err)
		}
		*b = Bool(parsed)
	case float64:
		*b = t != 0
	default:
		return fmt.Errorf("failed to parse boolean value %v", v)
	}
	return nil
}

func (b Bool) Bool() bool { return bool(b) }
