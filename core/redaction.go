package core

import "strings"

const RedactedValue = "[REDACTED]"

// sensitiveKeyFragments match case-insensitively anywhere in a key.
var sensitiveKeyFragments = []string{
	"token",
	"secret",
	"password",
	"authorization",
	"credential",
	"signature",
	"api_key",
	"apikey",
	"cvv",
	"cvc",
	"security_code",
	"securitycode",
	"full_pan",
	"pan_value",
	"pin_value",
	"pinblock",
}

// cardTraceKeys stay readable even when they contain a sensitive fragment.
var cardTraceKeys = map[string]struct{}{
	"source":     {},
	"cardid":     {},
	"card_id":    {},
	"cardids":    {},
	"cardholder": {},
	"session":    {},
	"request_id": {},
	"trace_id":   {},
}

// RedactSensitiveMap returns a copy of fields with secret-bearing keys
// replaced by RedactedValue. Nested maps and slices are walked; card ids and
// session ids are kept for traceability.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if isSensitiveCardKey(key) {
			out[key] = RedactedValue
			continue
		}
		out[key] = redactNested(value)
	}
	return out
}

func redactNested(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return RedactSensitiveMap(typed)
	case map[string]string:
		widened := make(map[string]any, len(typed))
		for key, item := range typed {
			widened[key] = item
		}
		return RedactSensitiveMap(widened)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = redactNested(item)
		}
		return items
	default:
		return value
	}
}

func isSensitiveCardKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	if _, ok := cardTraceKeys[key]; ok {
		return false
	}
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}
