package notify

import "testing"

func TestEscapeAppleScript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain text`, `plain text`},
		{`has "quotes"`, `has \"quotes\"`},
		{`back\slash`, `back\\slash`},
		{`both "q" and \`, `both \"q\" and \\`},
	}
	for _, tt := range tests {
		if got := escapeAppleScript(tt.in); got != tt.want {
			t.Errorf("escapeAppleScript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
