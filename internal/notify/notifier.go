package notify

import (
	"encoding/json"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/platform/mailer"
	"github.com/arealivre/areas-api/pkg/events"
	"github.com/arealivre/areas-api/pkg/logger"
)

// Notifier consumes booking events and sends the matching emails.
// Delivery is best effort; failures are logged and never bubble back
// into the booking flow.
type Notifier struct {
	bus    events.Subscriber
	mailer mailer.Service
}

func New(bus events.Subscriber, m mailer.Service) *Notifier {
	return &Notifier{bus: bus, mailer: m}
}

// Start registers the queue subscriptions. The queue group keeps a
// single delivery per event when multiple instances run.
func (n *Notifier) Start() error {
	if err := n.bus.QueueSubscribe(events.BookingCreated, "notify", n.handleCreated); err != nil {
		return err
	}
	if err := n.bus.QueueSubscribe(events.BookingStatusChanged, "notify", n.handleStatusChanged); err != nil {
		return err
	}
	return n.bus.QueueSubscribe(events.BookingCancelled, "notify", n.handleCancelled)
}

func (n *Notifier) handleCreated(msg *events.Message) {
	var event events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode booking created event", "error", err)
		return
	}

	if event.OwnerEmail == "" {
		logger.Warn("Booking created event without owner email", "booking_id", event.BookingID)
		return
	}

	err := n.mailer.SendBookingReceived(
		event.OwnerEmail,
		"",
		event.AreaName,
		event.CheckIn.Format(domain.DateLayout),
		event.CheckOut.Format(domain.DateLayout),
		event.TotalPrice,
	)
	if err != nil {
		logger.Error("Failed to send booking received email", "error", err, "booking_id", event.BookingID)
	}
}

func (n *Notifier) handleStatusChanged(msg *events.Message) {
	var event events.BookingStatusChangedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode booking status event", "error", err)
		return
	}

	// Only confirmations notify the guest, and only registered guests
	// have an email on file.
	if event.ToStatus != string(domain.BookingConfirmed) || event.GuestEmail == "" {
		return
	}

	err := n.mailer.SendBookingConfirmed(
		event.GuestEmail,
		event.GuestName,
		event.AreaName,
		event.CheckIn.Format(domain.DateLayout),
		event.CheckOut.Format(domain.DateLayout),
	)
	if err != nil {
		logger.Error("Failed to send booking confirmed email", "error", err, "booking_id", event.BookingID)
	}
}

func (n *Notifier) handleCancelled(msg *events.Message) {
	var event events.BookingCancelledEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode booking cancelled event", "error", err)
		return
	}

	if event.OwnerEmail == "" {
		return
	}

	err := n.mailer.SendBookingCancelled(event.OwnerEmail, "", event.AreaName)
	if err != nil {
		logger.Error("Failed to send booking cancelled email", "error", err, "booking_id", event.BookingID)
	}
}
