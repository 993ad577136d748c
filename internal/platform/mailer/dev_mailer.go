package mailer

import (
	"github.com/arealivre/areas-api/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendBookingReceived(toEmail, toName, areaName, checkIn, checkOut string, totalPrice float64) error {
	logger.Info("📧 [DEV MAIL] Booking Received",
		"to", toEmail,
		"name", toName,
		"area", areaName,
		"check_in", checkIn,
		"check_out", checkOut,
		"total_price", totalPrice,
	)
	return nil
}

func (d *DevMailer) SendBookingConfirmed(toEmail, toName, areaName, checkIn, checkOut string) error {
	logger.Info("📧 [DEV MAIL] Booking Confirmed",
		"to", toEmail,
		"name", toName,
		"area", areaName,
		"check_in", checkIn,
		"check_out", checkOut,
	)
	return nil
}

func (d *DevMailer) SendBookingCancelled(toEmail, toName, areaName string) error {
	logger.Info("📧 [DEV MAIL] Booking Cancelled",
		"to", toEmail,
		"name", toName,
		"area", areaName,
	)
	return nil
}
