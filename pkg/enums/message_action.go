package enums

// MessageAction is the outcome of classifying an inbound SMS.
type MessageAction string

const (
	ActionConfirmation MessageAction = "CONFIRMATION"
	ActionHelpRequest  MessageAction = "HELP_REQUEST"
	ActionOptOut       MessageAction = "OPT_OUT"
	ActionOptIn        MessageAction = "OPT_IN"
	ActionUnknown      MessageAction = "UNKNOWN"
)

func (m MessageAction) String() string {
	return string(m)
}

// OptOutChannel records which number a STOP arrived on.
type OptOutChannel string

const (
	OptOutChannelReminders OptOutChannel = "reminders"
	OptOutChannelTwoWay    OptOutChannel = "two_way"
)
