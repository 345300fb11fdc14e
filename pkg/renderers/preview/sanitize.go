package preview

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce   sync.Once
	textPolicy       *bluemonday.Policy
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// sanitizeText strips all markup from captured values and labels. The
// result is HTML-escaped and safe to print verbatim.
func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy.Sanitize(trimmed)
}

// sanitizeMarkup keeps basic formatting in section and field descriptions.
func sanitizeMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	markupPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("p", "br", "strong", "em", "b", "i", "ul", "ol", "li", "code")
		policy.AllowStandardURLs()
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
		markupPolicy = policy
	})
	return strings.TrimSpace(markupPolicy.Sanitize(trimmed))
}
