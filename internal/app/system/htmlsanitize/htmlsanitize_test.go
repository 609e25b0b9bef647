package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/crmhub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Call back on Monday", "Call back on Monday"},
		{"trims", "  spaced  ", "spaced"},
		{"keeps apostrophes and ampersands", "Tom's & Jerry", "Tom's & Jerry"},
		{"strips formatting", "<b>bold</b> text", "bold text"},
		{"drops script body", "Hello<script>alert('xss')</script>", "Hello"},
		{"drops onclick element", `<button onclick="alert(1)">Click</button>`, "Click"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("") {
		t.Error("expected empty string to be plain text")
	}
	if !htmlsanitize.IsPlainText("Hello, World!") {
		t.Error("expected string without tags to be plain text")
	}
	if htmlsanitize.IsPlainText("<p>Hello</p>") {
		t.Error("expected string with tags to NOT be plain text")
	}
}
