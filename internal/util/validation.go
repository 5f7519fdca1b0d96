package util

import (
	"strings"
)

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UserPart returns the portion of a WhatsApp ID before the '@' and any
// device suffix, e.g. "15550100000" for "15550100000:3@s.whatsapp.net".
func UserPart(id string) string {
	user, _, _ := strings.Cut(id, "@")
	user, _, _ = strings.Cut(user, ":")
	return user
}
