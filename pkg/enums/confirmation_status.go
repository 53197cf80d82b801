package enums

import "fmt"

// ConfirmationStatus maps to the confirmation_status enum in Postgres.
type ConfirmationStatus string

const (
	ConfirmationUnconfirmed     ConfirmationStatus = "UNCONFIRMED"
	ConfirmationSoftConfirmed   ConfirmationStatus = "SOFT_CONFIRMED"
	ConfirmationLikelyConfirmed ConfirmationStatus = "LIKELY_CONFIRMED"
	ConfirmationConfirmed       ConfirmationStatus = "CONFIRMED"
	ConfirmationDeclined        ConfirmationStatus = "DECLINED"
)

var validConfirmationStatuses = []ConfirmationStatus{
	ConfirmationUnconfirmed,
	ConfirmationSoftConfirmed,
	ConfirmationLikelyConfirmed,
	ConfirmationConfirmed,
	ConfirmationDeclined,
}

func (c ConfirmationStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ConfirmationStatus.
func (c ConfirmationStatus) IsValid() bool {
	for _, candidate := range validConfirmationStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsSettled reports whether the associate has given a final answer. Settled
// assignments never receive another reminder.
func (c ConfirmationStatus) IsSettled() bool {
	return c == ConfirmationConfirmed || c == ConfirmationDeclined
}

// ParseConfirmationStatus converts raw input into a ConfirmationStatus.
func ParseConfirmationStatus(value string) (ConfirmationStatus, error) {
	for _, candidate := range validConfirmationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid confirmation status %q", value)
}
