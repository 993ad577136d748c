package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendBookingReceived(toEmail, toName, areaName, checkIn, checkOut string, totalPrice float64) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("New booking request for %s", areaName)
	html := fmt.Sprintf(`
		<h2>New booking request</h2>
		<p>Hi %s,</p>
		<p>You have a new booking request for <strong>%s</strong>.</p>
		<p>Check-in: %s<br>Check-out: %s</p>
		<p>Total: <strong>R$ %.2f</strong></p>
		<p>Confirm or decline it from your dashboard.</p>
	`, toName, areaName, checkIn, checkOut, totalPrice)

	text := fmt.Sprintf("New booking request for %s.\nCheck-in: %s\nCheck-out: %s\nTotal: R$ %.2f",
		areaName, checkIn, checkOut, totalPrice)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendBookingConfirmed(toEmail, toName, areaName, checkIn, checkOut string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Your booking at %s is confirmed", areaName)
	html := fmt.Sprintf(`
		<h2>Booking confirmed</h2>
		<p>Hi %s,</p>
		<p>Your stay at <strong>%s</strong> is confirmed.</p>
		<p>Check-in: %s<br>Check-out: %s</p>
		<p>Enjoy your stay!</p>
	`, toName, areaName, checkIn, checkOut)

	text := fmt.Sprintf("Your stay at %s is confirmed.\nCheck-in: %s\nCheck-out: %s",
		areaName, checkIn, checkOut)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendBookingCancelled(toEmail, toName, areaName string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Booking at %s cancelled", areaName)
	html := fmt.Sprintf(`
		<h2>Booking cancelled</h2>
		<p>Hi %s,</p>
		<p>A booking at <strong>%s</strong> was cancelled. The dates are available again.</p>
	`, toName, areaName)

	text := fmt.Sprintf("A booking at %s was cancelled. The dates are available again.", areaName)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
