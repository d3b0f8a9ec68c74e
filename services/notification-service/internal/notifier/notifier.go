package notifier

import "github.com/rs/zerolog"

// Mailer is the delivery channel abstraction (email now, SMS/push later).
type Mailer interface {
	Send(recipient, subject, body string) error
}

// ConsoleMailer writes the message to the log instead of sending it.
// Default channel until a real SMTP gateway is configured.
type ConsoleMailer struct {
	log zerolog.Logger
}

func NewConsole(log zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

func (m *ConsoleMailer) Send(recipient, subject, body string) error {
	m.log.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Str("body", body).
		Msg("notification delivered")
	return nil
}
