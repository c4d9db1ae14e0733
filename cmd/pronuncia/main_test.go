package main

import (
	"testing"
	"unicode/utf8"

	"github.com/MrWong99/pronuncia/internal/config"
)

func TestTruncate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"gemini", 19, "gemini"},
		{"português", 9, "português"},
		{"português brasileiro", 10, "português…"},
		{"ãããããããããããããããããããããã", 19, "ãããããããããããããããããã…"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) || utf8.RuneCountInString(got) > tt.n {
			t.Errorf("truncate(%q, %d) = %q is not a valid string of at most %d runes", tt.in, tt.n, got, tt.n)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()
	for level, want := range map[config.LogLevel]string{
		config.LogDebug: "DEBUG",
		config.LogInfo:  "INFO",
		config.LogWarn:  "WARN",
		config.LogError: "ERROR",
		"":              "INFO",
	} {
		if got := slogLevel(level).String(); got != want {
			t.Errorf("slogLevel(%q) = %s, want %s", level, got, want)
		}
	}
}
