package rules

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is an effect magnitude. Rule files may declare it as a number or a
// numeric string; anything that does not parse as a number becomes 0 so
// that resolution never fails on bad input.
type Value float64

// ParseValue coerces s to a Value.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

// ValueOf coerces an arbitrary decoded value to a Value.
func ValueOf(v any) Value {
	switch n := v.(type) {
	case Value:
		return n
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return Value(n)
	case int64:
		return Value(n)
	case json.Number:
		return ParseValue(n.String())
	case string:
		return ParseValue(n)
	default:
		return 0
	}
}

func finite(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Value(f)
}

// Int truncates v toward zero, saturating at the int range.
func (v Value) Int() int {
	f := math.Trunc(float64(v))
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(f)
}

// UnmarshalJSON accepts numbers, numeric strings, and anything else as 0.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*v = 0
			return nil
		}
		*v = ParseValue(s)
		return nil
	}
	*v = ParseValue(string(data))
	return nil
}

// UnmarshalYAML accepts any scalar node.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*v = 0
		return nil
	}
	*v = ParseValue(node.Value)
	return nil
}

// UnmarshalText is used by the TOML decoder for every literal kind.
func (v *Value) UnmarshalText(text []byte) error {
	*v = ParseValue(strings.ReplaceAll(string(text), "_", ""))
	return nil
}
