package queryutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Show Name (2019)", "Show Name 2019"},
		{"Émission Télé", "Emission Tele"},
		{"  spaced   out  ", "spaced out"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
