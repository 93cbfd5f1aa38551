package render

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// FuncMap returns template helpers for YAML rendering.
func FuncMap(tracker *EnvTracker) template.FuncMap {
	return template.FuncMap{
		"env": func(key string) string {
			value, ok := os.LookupEnv(key)
			if !ok {
				tracker.markMissing(key)
			}
			return value
		},
		"envOr": func(key, def string) string {
			if value, ok := os.LookupEnv(key); ok && value != "" {
				return value
			}
			return def
		},
		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},
		"required": func(msg, value string) (string, error) {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s", msg)
			}
			return value, nil
		},
		"quote": func(value string) string {
			return fmt.Sprintf("%q", value)
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
