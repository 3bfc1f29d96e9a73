package app

import (
	"go.uber.org/zap"

	"github.com/dayyanintl/surgishop/internal/events"
	"github.com/dayyanintl/surgishop/internal/mail"
)

// registerSubscribers turns domain events into outgoing mail.
func (a *Application) registerSubscribers() error {
	if err := a.bus.Subscribe(events.TopicUserSignedUp, a.onUserSignedUp); err != nil {
		return err
	}
	if err := a.bus.Subscribe(events.TopicOrderPlaced, a.onOrderPlaced); err != nil {
		return err
	}
	return a.bus.Subscribe(events.TopicOrderStatusChanged, a.onOrderStatusChanged)
}

func (a *Application) onUserSignedUp(ev events.UserSignedUp) {
	a.mailer.Dispatch(mail.VerificationEmail(ev.Email, ev.Code, ev.TTLHours))
}

func (a *Application) onOrderPlaced(ev events.OrderPlaced) {
	owner := a.appConfig.Shop.OwnerEmail
	if owner == "" {
		zap.L().Debug("owner email not configured, skipping order notification",
			zap.String("namespace", "mail"), zap.String("order_no", ev.OrderNo))
		return
	}
	a.mailer.Dispatch(mail.OrderNotification(owner, ev.OrderID, ev.OrderNo, ev.TotalAmount))
}

func (a *Application) onOrderStatusChanged(ev events.OrderStatusChanged) {
	if ev.UserEmail == "" {
		return
	}
	a.mailer.Dispatch(mail.OrderStatusEmail(ev.UserEmail, ev.OrderNo, ev.To))
}
