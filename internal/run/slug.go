package run

import "strings"

// Slugify lowercases s, replaces every non-alphanumeric ASCII rune with a
// hyphen, collapses runs of hyphens, trims edge hyphens, and truncates to
// maxLen without a trailing hyphen. Slugifying a slug yields itself.
func Slugify(s string, maxLen int) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if maxLen > 0 && len(out) > maxLen {
		out = strings.TrimRight(out[:maxLen], "-")
	}
	return out
}
