package util

import "strings"

// MaskSecret renders a configured secret as "Set (abcde...xyz)" or "Not set".
// Secrets too short to reveal eight characters are shown as "Set (***)".
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "Not set"
	}
	if len(secret) <= 8 {
		return "Set (***)"
	}
	return "Set (" + secret[:5] + "..." + secret[len(secret)-3:] + ")"
}
