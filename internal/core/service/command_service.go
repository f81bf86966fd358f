package service

import (
	"fmt"
	"log"

	"trackmate/internal/core/model"
	"trackmate/internal/protocol/locator"
)

// CommandService exposes the locator's SMS command vocabulary. The locate
// action goes through the polling protocol; everything else is
// fire-and-forget.
type CommandService interface {
	Send(locatorNumber, action string) error
}

type commandService struct {
	polling PollingService
	sender  SmsSender
	fixes   FixService
	userID  string
}

func NewCommandService(polling PollingService, sender SmsSender, fixes FixService, userID string) CommandService {
	return &commandService{
		polling: polling,
		sender:  sender,
		fixes:   fixes,
		userID:  userID,
	}
}

func (s *commandService) Send(locatorNumber, action string) error {
	if locatorNumber == "" {
		return fmt.Errorf("locator number is required")
	}

	if action == "locate" {
		return s.polling.StartPolling(locatorNumber, model.TriggerManual)
	}

	text, ok := locator.Commands[action]
	if !ok {
		return fmt.Errorf("unknown command %q", action)
	}
	s.sender.SendText(locatorNumber, text)
	log.Printf("[command] sent %s to %s", action, locatorNumber)

	// Clearing the device's memory also drops our stored history so the two
	// sides stay consistent.
	if text == locator.CmdClearMemory {
		if err := s.fixes.PurgeFixes(s.userID); err != nil {
			return err
		}
	}
	return nil
}
