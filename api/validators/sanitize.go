package validators

import "strings"

// MaxSMSBodyLength caps inbound bodies at the provider's concatenated limit.
const MaxSMSBodyLength = 1600

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
