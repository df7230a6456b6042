package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StringArg returns the trimmed string argument name, or "" when it is
// missing or not a string.
func StringArg(args map[string]interface{}, name string) string {
	value, ok := args[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// IntArg returns the integer argument name. JSON numbers arrive as float64,
// so integral floats are accepted; numeric strings are accepted as well.
// The boolean result is false when the argument is absent.
func IntArg(args map[string]interface{}, name string) (int, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, true, fmt.Errorf("%s must be a whole number, got %v", name, v)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, true, fmt.Errorf("%s must be a whole number, got %q", name, v)
		}
		return n, true, nil
	default:
		return 0, true, fmt.Errorf("%s must be a number, got %T", name, raw)
	}
}
