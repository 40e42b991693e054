package service

import (
	"errors"
	"fmt"
	"strings"

	"sensorhub/telemetry-api/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailSender is satisfied by *gomail.Dialer
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type WelcomeMailer struct {
	sender MailSender
	from   string
}

func NewWelcomeMailer(c config.Mail) *WelcomeMailer {
	return &WelcomeMailer{
		sender: gomail.NewDialer(c.Host, c.Port, c.Username, c.Password),
		from:   c.From,
	}
}

func NewWelcomeMailerWithSender(s MailSender, from string) *WelcomeMailer {
	return &WelcomeMailer{sender: s, from: from}
}

func (w *WelcomeMailer) Send(name, sendTo string) error {
	if strings.EqualFold(sendTo, w.from) {
		return errors.New("invalid email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", w.from)
	m.SetAddressHeader("To", sendTo, name)
	m.SetHeader("Subject", "Your sensor dashboard is ready")
	m.SetBody("text/plain", fmt.Sprintf("Hi %s,\n\nYour account is set up. Devices can now submit readings with the token returned at signup.\n", name))

	if err := w.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome mail, %w", err)
	}

	return nil
}

// SendAsync sends the mail in the background. Failures are only logged.
func (w *WelcomeMailer) SendAsync(name, sendTo, requestID string) {
	go func() {
		if err := w.Send(name, sendTo); err != nil {
			zap.L().Error("Failed to send welcome mail", zap.Error(err), zap.String("requestID", requestID))
		}
	}()
}
