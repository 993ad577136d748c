package mailer

// Service sends the transactional emails the booking flow produces.
type Service interface {
	SendBookingReceived(toEmail, toName, areaName, checkIn, checkOut string, totalPrice float64) error
	SendBookingConfirmed(toEmail, toName, areaName, checkIn, checkOut string) error
	SendBookingCancelled(toEmail, toName, areaName string) error
}
