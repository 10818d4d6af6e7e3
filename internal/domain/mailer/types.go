package mailer

import (
	"context"
	"strings"
)

// Choice names one delivery backend.
type Choice string

const (
	ChoiceTransactional Choice = "transactional"
	ChoiceSMTP          Choice = "smtp"
	ChoiceSimulated     Choice = "simulated"
)

var choiceAliases = map[string]Choice{
	"transactional": ChoiceTransactional,
	"sendgrid":      ChoiceTransactional,
	"smtp":          ChoiceSMTP,
	"nodemailer":    ChoiceSMTP,
	"simulated":     ChoiceSimulated,
	"simulation":    ChoiceSimulated,
	"direct":        ChoiceSimulated,
}

// ParseChoice resolves a provider name or one of its aliases.
func ParseChoice(raw string) (Choice, bool) {
	choice, ok := choiceAliases[strings.ToLower(strings.TrimSpace(raw))]
	return choice, ok
}

// Message is a transient outbound email.
type Message struct {
	From       string
	Recipients []string
	Subject    string
	Text       string
	HTML       string
}

// Result is the normalized outcome of a dispatch. Success is always explicit.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

// Mailer is one delivery backend.
type Mailer interface {
	Name() Choice
	Configured() bool
	Send(ctx context.Context, msg Message) (string, error)
}

// DeliveryError is an expected provider failure whose Message is shown to the caller as is.
type DeliveryError struct {
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Config configures the email domain.
type Config struct {
	From            string
	DefaultProvider string
}
