package utils

import "github.com/microcosm-cc/bluemonday"

// Shared policy; bluemonday policies are safe for concurrent use.
var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips unsafe HTML from user-authored content (post descriptions,
// comment text) before it is stored.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
