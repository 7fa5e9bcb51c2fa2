package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/record-agent/record"
)

// Args holds arguments after coercion to their declared types: integers
// are int64, numbers float64, strings string.
type Args map[string]any

func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a Args) Int(name string) int64 {
	v, _ := a[name].(int64)
	return v
}

func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

func (a Args) StringPtr(name string) *string {
	v, ok := a[name].(string)
	if !ok {
		return nil
	}
	return &v
}

func (a Args) IntPtr(name string) *int64 {
	v, ok := a[name].(int64)
	if !ok {
		return nil
	}
	return &v
}

func (a Args) FloatPtr(name string) *float64 {
	v, ok := a[name].(float64)
	if !ok {
		return nil
	}
	return &v
}

// ParseArgs decodes the JSON argument string a model produces for a tool
// call. An empty string is an empty argument set.
func ParseArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: tool arguments are not a JSON object: %v", record.ErrInvalidInput, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after tool arguments", record.ErrInvalidInput)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// validateArgs checks presence and type of every declared parameter and
// drops anything undeclared. Null counts as absent.
func validateArgs(params []Param, raw map[string]any) (Args, error) {
	out := make(Args, len(params))
	for _, p := range params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, fmt.Errorf("%w: missing required argument %q", record.ErrInvalidInput, p.Name)
			}
			continue
		}
		coerced, err := coerce(p.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q %v", record.ErrInvalidInput, p.Name, err)
		}
		if p.Required && p.Type == schema.String && strings.TrimSpace(coerced.(string)) == "" {
			return nil, fmt.Errorf("%w: argument %q must not be empty", record.ErrInvalidInput, p.Name)
		}
		out[p.Name] = coerced
	}
	return out, nil
}

func coerce(t schema.DataType, v any) (any, error) {
	switch t {
	case schema.String:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		}
		return nil, fmt.Errorf("must be a string, got %T", v)
	case schema.Integer:
		return toInt(v)
	case schema.Number:
		return toFloat(v)
	case schema.Boolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("must be a boolean, got %q", x)
			}
			return b, nil
		}
		return nil, fmt.Errorf("must be a boolean, got %T", v)
	default:
		return v, nil
	}
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		return floatToInt(x)
	case json.Number:
		return parseInt(x.String())
	case string:
		return parseInt(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("must be an integer, got %T", v)
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("must be an integer, got %q", s)
	}
	return floatToInt(f)
}

// floatToInt accepts integral values inside the int64 range. 2^63 itself is
// exactly representable as a float64 but overflows int64.
func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("must be an integer, got %v", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("integer %v is out of range", f)
	}
	return int64(f), nil
}

func toFloat(v any) (float64, error) {
	f, err := rawFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be a finite number, got %v", f)
	}
	return f, nil
}

func rawFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", x.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("must be a number, got %T", v)
}
