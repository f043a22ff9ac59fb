// Package placeholder renders notification templates containing {key} tokens.
//
// Rendering is a single pass: substituted values are never rescanned, so a
// value that itself looks like "{other}" is emitted literally. Unknown or nil
// keys render as the empty string; Render never fails.
package placeholder

import (
	"fmt"
	"regexp"
)

var tokenPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Render substitutes every {key} token in template with data[key]
func Render(template string, data map[string]any) string {
	if template == "" {
		return ""
	}
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := token[1 : len(token)-1]
		v, ok := data[key]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	})
}

// Keys lists the distinct placeholder names in order of first appearance
func Keys(template string) []string {
	matches := tokenPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		keys = append(keys, m[1])
	}
	return keys
}
