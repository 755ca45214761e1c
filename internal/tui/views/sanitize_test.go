package views

import "testing"

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hola mundo", "hola mundo"},
		{"keeps newline", "hola\nmundo", "hola\nmundo"},
		{"strips escape", "hola\x1b[31mmundo", "hola[31mmundo"},
		{"strips bell", "din\x07g", "ding"},
		{"strips skin tone", "\U0001F44D\U0001F3FB", "\U0001F44D"},
		{"strips zwj sequence", "\U0001F468\u200d\U0001F469", "\U0001F468\U0001F469"},
		{"strips variation selector", "\u2764\ufe0f", "\u2764"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeForTerminal(tt.in); got != tt.want {
				t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
