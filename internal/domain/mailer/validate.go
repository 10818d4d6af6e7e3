package mailer

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	msgRecipientsRequired = "At least one recipient email is required"
	msgInvalidFormat      = "Invalid email format: "
)

// ValidateRecipients returns "" when the list is acceptable, otherwise the caller facing reason.
func ValidateRecipients(recipients []string) string {
	if len(recipients) == 0 {
		return msgRecipientsRequired
	}
	var invalid []string
	for _, r := range recipients {
		if !emailPattern.MatchString(r) {
			invalid = append(invalid, r)
		}
	}
	if len(invalid) > 0 {
		return msgInvalidFormat + strings.Join(invalid, ", ")
	}
	return ""
}

// CleanRecipients trims entries and drops empty ones.
func CleanRecipients(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if trimmed := strings.TrimSpace(r); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
