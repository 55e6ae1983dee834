package turn

import "strings"

// Compose joins the model's own text with the tool fragments, in execution
// order, separated by blank lines. The reply is never empty: filler is used
// when nothing else has content.
func Compose(content string, fragments []string, filler string) string {
	parts := make([]string, 0, len(fragments)+1)
	if c := strings.TrimSpace(content); c != "" {
		parts = append(parts, c)
	}
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return filler
	}
	return strings.Join(parts, "\n\n")
}
