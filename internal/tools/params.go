package tools

import "fmt"

// Invocation parameters arrive as decoded JSON, so numbers are float64
// and coordinates are []interface{} pairs. These helpers validate and
// convert without ever panicking on a malformed payload.

func coordParam(params map[string]interface{}, key string) (int, int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, 0, fmt.Errorf("missing parameter: %s", key)
	}
	pair, ok := raw.([]interface{})
	if !ok || len(pair) != 2 {
		return 0, 0, fmt.Errorf("parameter %s must be an [x, y] pair", key)
	}
	x, okX := asInt(pair[0])
	y, okY := asInt(pair[1])
	if !okX || !okY {
		return 0, 0, fmt.Errorf("parameter %s must contain numbers", key)
	}
	return x, y, nil
}

func intParam(params map[string]interface{}, key string) (int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing parameter: %s", key)
	}
	n, ok := asInt(raw)
	if !ok {
		return 0, fmt.Errorf("parameter %s must be a number", key)
	}
	return n, nil
}

func stringParam(params map[string]interface{}, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter: %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
