package mail

import (
	"fmt"
	"net/smtp"
)

// Mailer sends a plain-text message. Callers treat failures as best-effort:
// log and continue, never fail the purchase.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through a single SMTP account.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTP(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, []byte(msg))
}

// Noop discards all messages. Used when no SMTP account is configured and in
// tests.
type Noop struct{}

func (Noop) Send(to, subject, body string) error { return nil }

// PurchaseConfirmation builds the customer-facing confirmation message.
func PurchaseConfirmation(customerName, itemName, amount, reference string) (subject, body string) {
	subject = "Your Tassel Group purchase is confirmed"
	body = fmt.Sprintf(
		"Hi %s,\n\nThank you for your purchase.\n\nItem: %s\nAmount: R%s\nReference: %s\n\nWe look forward to seeing you.\n\nTassel Group",
		customerName, itemName, amount, reference)
	return subject, body
}

// BusinessNotification builds the internal heads-up about a settled purchase.
func BusinessNotification(customerName, itemName, amount, reference string) (subject, body string) {
	subject = fmt.Sprintf("New purchase: %s (R%s)", itemName, amount)
	body = fmt.Sprintf(
		"Customer: %s\nItem: %s\nAmount: R%s\nReference: %s\n",
		customerName, itemName, amount, reference)
	return subject, body
}
