// Package htmlsanitize strips unsafe HTML from user-generated content
// before it is stored or rendered. Chat message bodies pass through
// Sanitize on every post.
package htmlsanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func getPolicy() *bluemonday.Policy {
	once.Do(func() {
		policy = bluemonday.UGCPolicy()
	})
	return policy
}

// Sanitize returns s with all disallowed HTML removed. Safe formatting
// tags (p, strong, em, lists, links with rel=nofollow) are preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// StripTags removes all HTML, returning plain text only. Used where
// markup is never meaningful (team names, milestone titles).
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return bluemonday.StrictPolicy().Sanitize(s)
}
