package memory

import "strings"

// matchPrefixLen is the number of leading characters compared when looking for
// a restatement of an existing memory.
const matchPrefixLen = 20

// matchKey lowercases the text and keeps its first matchPrefixLen runes.
func matchKey(text string) string {
	lowered := []rune(strings.ToLower(strings.TrimSpace(text)))
	if len(lowered) > matchPrefixLen {
		lowered = lowered[:matchPrefixLen]
	}
	return strings.TrimSpace(string(lowered))
}

// FindDuplicate returns the first candidate that shares a prefix with text:
// either the candidate contains the new text's key or the new text starts
// with the candidate's key. Candidates are expected most recent first.
func FindDuplicate(candidates []Memory, text string) *Memory {
	key := matchKey(text)
	if key == "" {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(text))
	for i := range candidates {
		existingKey := matchKey(candidates[i].Text)
		if existingKey == "" {
			continue
		}
		if strings.Contains(strings.ToLower(candidates[i].Text), key) || strings.HasPrefix(lowered, existingKey) {
			return &candidates[i]
		}
	}
	return nil
}
