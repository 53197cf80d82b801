package inbound

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/crewtext-backend/internal/companies"
	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/phone"
)

const (
	helpReply = "Shift reminders: reply C to confirm your upcoming shift, " +
		"STOP to unsubscribe, START to re-subscribe, or HELP to see this menu again."
	optOutReply = "You have been unsubscribed and will no longer receive shift reminders. " +
		"Reply START to re-subscribe."
	optInReply    = "You have been re-subscribed to shift reminders. Reply STOP at any time to opt out."
	fallbackReply = "Sorry, we didn't understand your message. " +
		"Reply C to confirm, HELP for options, or STOP to opt out."
)

func greeting(associate *models.Associate) string {
	name := strings.TrimSpace(associate.FirstName)
	if name == "" {
		return "Thanks"
	}
	return "Thanks " + name
}

func confirmationReply(associate *models.Associate, count int) string {
	if count == 1 {
		return greeting(associate) + "! Your upcoming shift is confirmed. See you there."
	}
	return fmt.Sprintf("%s! All %d of your upcoming shifts are confirmed. See you there.", greeting(associate), count)
}

func nothingToConfirmReply(associate *models.Associate) string {
	name := strings.TrimSpace(associate.FirstName)
	if name != "" {
		name = " " + name
	}
	return "Hi" + name + ", we couldn't find any upcoming shifts waiting for confirmation. Reply HELP for options."
}

// replyNumber picks the sender for a reply: the reminders number when the
// message arrived there, otherwise the company's two-way number when one can
// be resolved, otherwise the reminders number.
func (s *Service) replyNumber(ctx context.Context, msg IncomingMessage) string {
	remindersNumber := s.messenger.RemindersNumber()
	if msg.To == "" || phone.Equal(msg.To, remindersNumber) {
		return remindersNumber
	}
	if s.companies == nil {
		return remindersNumber
	}

	if msg.CompanyID != nil {
		company, err := s.companies.GetByID(ctx, *msg.CompanyID)
		switch {
		case err == nil && company.TwoWayPhoneNumber != nil && strings.TrimSpace(*company.TwoWayPhoneNumber) != "":
			return *company.TwoWayPhoneNumber
		case err != nil && !errors.Is(err, companies.ErrNotFound):
			s.logg.Error(ctx, "company lookup for reply routing failed", err)
		}
	}

	company, err := s.companies.GetByTwoWayNumber(ctx, msg.To)
	switch {
	case err == nil && company.TwoWayPhoneNumber != nil:
		return *company.TwoWayPhoneNumber
	case err != nil && !errors.Is(err, companies.ErrNotFound):
		s.logg.Error(ctx, "two-way number lookup failed", err)
	}
	return remindersNumber
}

// isRemindersNumber reports whether to is the dedicated reminders line.
// An empty destination is treated as the reminders line.
func (s *Service) isRemindersNumber(to string) bool {
	return strings.TrimSpace(to) == "" || phone.Equal(to, s.messenger.RemindersNumber())
}
