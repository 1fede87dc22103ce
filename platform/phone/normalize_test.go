package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty input", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "garbage passes through", input: "not-a-number", want: "not-a-number"},
		{name: "trims before fallback", input: "  abc  ", want: "abc"},
		{name: "buenos aires landline", input: "011 4123-4567", want: "+541141234567"},
		{name: "already e164", input: "+541141234567", want: "+541141234567"},
		{name: "too short is returned as-is", input: "123", want: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input); got != tt.want {
				t.Errorf("NormalizeE164(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
