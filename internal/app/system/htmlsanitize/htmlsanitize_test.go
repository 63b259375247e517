package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "Apply before March", "Apply before March"},
		{"keeps formatting", "<p><strong>IELTS</strong> and <em>TOEFL</em></p>", "<p><strong>IELTS</strong> and <em>TOEFL</em></p>"},
		{"removes script", "<p>Hi</p><script>alert(1)</script>", "<p>Hi</p>"},
		{"keeps lists", "<ul><li>Visa</li><li>Housing</li></ul>", "<ul><li>Visa</li><li>Housing</li></ul>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_StripsDangerousAttributes(t *testing.T) {
	out := htmlsanitize.Sanitize(`<a href="javascript:alert(1)" onclick="x()">Go</a><iframe src="https://evil.example"></iframe>`)
	for _, bad := range []string{"javascript:", "onclick", "iframe"} {
		if strings.Contains(out, bad) {
			t.Errorf("output still contains %q: %q", bad, out)
		}
	}
}

func TestSanitize_LinksGetNofollow(t *testing.T) {
	out := htmlsanitize.Sanitize(`<a href="https://example.com">Site</a>`)
	if !strings.Contains(out, `href="https://example.com"`) || !strings.Contains(out, "nofollow") {
		t.Errorf("unexpected link output %q", out)
	}
}

func TestStripTags(t *testing.T) {
	if got := htmlsanitize.StripTags("<b>hello</b> there"); got != "hello there" {
		t.Errorf("StripTags = %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("no tags") {
		t.Error("expected plain text")
	}
	if htmlsanitize.IsPlainText("<p>x</p>") {
		t.Error("expected markup detected")
	}
}

func TestStripTags_KeepsApostrophes(t *testing.T) {
	if got := htmlsanitize.StripTags("It's great & easy"); got != "It's great & easy" {
		t.Errorf("StripTags = %q", got)
	}
}
