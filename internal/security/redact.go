package security

import "strings"

var sensitiveSubstrings = []string{
	"token",
	"password",
	"passwd",
	"pwd",
	"passphrase",
	"authorization",
	"apikey",
	"api_key",
	"x-api-key",
	"access_key",
	"private_key",
	"credential",
	"secret",
	"cookie",
	"session",
	"jwt",
	"bearer",
	"signature",
}

// Redacted replaces sensitive values.
const Redacted = "***"

// Redact returns a deep copy of values with sensitive keys masked. Nested
// objects and arrays of objects are walked.
func Redact(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		if IsSensitiveKey(key) {
			out[key] = Redacted
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Redact(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = redactValue(item)
		}
		return items
	default:
		return value
	}
}

// IsSensitiveKey reports whether a key looks like it holds a credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	for _, part := range sensitiveSubstrings {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
