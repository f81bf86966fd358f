package sms

import (
	"fmt"
	"log"
	"strings"

	"trackmate/internal/core/model"
	"trackmate/internal/core/service"
	"trackmate/internal/notify"
	"trackmate/internal/protocol/locator"
)

// Router dispatches inbound texts: binding confirmations start an automatic
// poll, everything else from the locator is classified and fed to the
// polling protocol. Texts from any other sender are dropped.
type Router struct {
	polling       service.PollingService
	policy        *notify.Policy
	locatorNumber string
}

func NewRouter(polling service.PollingService, policy *notify.Policy, locatorNumber string) *Router {
	return &Router{
		polling:       polling,
		policy:        policy,
		locatorNumber: locatorNumber,
	}
}

func (r *Router) HandleMessage(sender, body string) {
	if !sameNumber(sender, r.locatorNumber) {
		log.Printf("[sms] ignoring message from unknown sender %s", sender)
		return
	}

	if bound, ok := locator.ParseBinding(body); ok {
		log.Printf("[sms] locator confirmed binding to %s", bound)
		r.polling.RecordBinding(r.locatorNumber, bound)
		r.policy.Notify(model.CategoryDefault,
			"GPS Locator Bound",
			fmt.Sprintf("GPS Locator confirmed binding to %s. Requesting first location.", bound))
		if err := r.polling.StartPolling(r.locatorNumber, model.TriggerAutomatic); err != nil {
			log.Printf("[sms] failed to start post-binding poll: %v", err)
		}
		return
	}

	r.polling.HandleResponse(r.locatorNumber, locator.Parse(body))
}

// sameNumber compares phone numbers on their last eight digits, ignoring
// formatting. The suffix compare tolerates both the country-code and the
// national trunk-zero form of the same subscriber number.
func sameNumber(a, b string) bool {
	da, db := digitsOf(a), digitsOf(b)
	if da == "" || db == "" {
		return false
	}
	if len(da) > 8 {
		da = da[len(da)-8:]
	}
	if len(db) > 8 {
		db = db[len(db)-8:]
	}
	return da == db
}

func digitsOf(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
