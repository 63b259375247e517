// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy allows rich-text editor output (headings, lists, tables, links,
// code) and strips scripts, iframes, styles and event handlers.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "p", "span")
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// textPolicy strips every tag.
var textPolicy = bluemonday.StrictPolicy()

// Sanitize cleans admin-authored HTML (announcement content, job
// descriptions, footer HTML) before it is stored.
func Sanitize(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(in))
}

// StripTags removes all markup and returns unescaped text, for
// visitor-supplied fields the frontend renders as text (testimonials).
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// IsPlainText reports whether s contains no tags.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
