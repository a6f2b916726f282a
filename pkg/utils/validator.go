package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)
	dashRuns    = regexp.MustCompile(`-{2,}`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// SanitizeFilename returns a lower-case, filesystem-safe slug of name.
// Path separators and parent references are dropped and every other run of
// characters outside [A-Za-z0-9_-] becomes a single dash.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")

	name = unsafeChars.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	return strings.ToLower(strings.Trim(name, "-"))
}
