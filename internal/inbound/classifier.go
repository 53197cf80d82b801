package inbound

import (
	"strings"
	"unicode"

	"github.com/angelmondragon/crewtext-backend/pkg/enums"
)

var (
	confirmationKeywords = []string{
		"c", "confirm", "confirmed", "yes", "y", "ok", "okay", "sure",
		"will be there", "i'll be there", "ill be there",
	}
	optInKeywords  = []string{"start", "subscribe", "yes", "optin", "opt-in"}
	optOutKeywords = []string{"stop", "unsubscribe"}
)

// ParseMessageAction classifies a reply. Confirmation is checked first, so a
// bare "yes" confirms a shift and never re-subscribes.
func ParseMessageAction(text string) enums.MessageAction {
	normalized := normalizeText(text)
	if normalized == "" {
		return enums.ActionUnknown
	}
	switch {
	case matchesConfirmation(normalized):
		return enums.ActionConfirmation
	case normalized == "help":
		return enums.ActionHelpRequest
	case exactMatch(normalized, optInKeywords):
		return enums.ActionOptIn
	case exactMatch(normalized, optOutKeywords):
		return enums.ActionOptOut
	default:
		return enums.ActionUnknown
	}
}

// normalizeText lowercases, folds curly apostrophes, strips surrounding
// punctuation and collapses whitespace.
func normalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, "’", "'")
	text = strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'' && r != '-')
	})
	return strings.Join(strings.Fields(text), " ")
}

// matchesConfirmation accepts an exact keyword, or a multi-letter keyword
// appearing as whole words inside a longer reply ("yes i will", "ok thanks").
// Single letters only count as the entire reply.
func matchesConfirmation(text string) bool {
	if exactMatch(text, confirmationKeywords) {
		return true
	}
	padded := " " + wordsOnly(text) + " "
	for _, keyword := range confirmationKeywords {
		if len(keyword) < 2 {
			continue
		}
		if strings.Contains(padded, " "+keyword+" ") {
			return true
		}
	}
	return false
}

func exactMatch(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if text == keyword {
			return true
		}
	}
	return false
}

func wordsOnly(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' {
			return r
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}
