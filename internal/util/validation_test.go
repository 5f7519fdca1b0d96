package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+1 (555) 010-0000", "15550100000"},
		{"15550100000", "15550100000"},
		{"abc", ""},
		{"", ""},
		{"+62 812-3456-789", "628123456789"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, DigitsOnly(tc.input))
		})
	}
}

func TestUserPart(t *testing.T) {
	assert.Equal(t, "15550100000", UserPart("15550100000@s.whatsapp.net"))
	assert.Equal(t, "15550100000", UserPart("15550100000:3@s.whatsapp.net"))
	assert.Equal(t, "120363000000000000", UserPart("120363000000000000@g.us"))
	assert.Equal(t, "plain", UserPart("plain"))
}
