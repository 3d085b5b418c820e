package utils

import "strings"

// SanitizeName maps every character outside [A-Za-z0-9_-] to '_'.
// JetStream stream and consumer names reject dots, wildcards and spaces.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		case c == '*':
			b.WriteString("all")
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StreamName returns the JetStream stream that carries subject
func StreamName(subject string) string {
	return "INSIGHT_" + strings.ToUpper(SanitizeName(subject))
}
