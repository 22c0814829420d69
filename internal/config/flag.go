package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Flag is a boolean that also accepts 0 and 1, since config files written
// for numeric tooling often encode switches as numbers.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flag: expected boolean or 0/1, got %s", string(data))
	}
	return f.setNumber(n)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	var b bool
	if err := node.Decode(&b); err == nil {
		*f = Flag(b)
		return nil
	}

	var n float64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("flag: expected boolean or 0/1 at line %d, got %q", node.Line, node.Value)
	}
	return f.setNumber(n)
}

func (f *Flag) setNumber(n float64) error {
	switch n {
	case 0:
		*f = false
	case 1:
		*f = true
	default:
		return fmt.Errorf("flag: numeric value must be 0 or 1, got %v", n)
	}
	return nil
}
