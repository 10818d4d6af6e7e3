package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

const (
	msgNotConfigured = "No email service is configured. Please check your environment variables: SENDGRID_API_KEY or EMAIL_USER/EMAIL_PASSWORD."
	msgUnsupported   = "Unsupported email provider: "
	msgFailedPrefix  = "Failed to send email: "
)

// Dispatcher executes a send through the backend the caller picked. It never
// chooses a backend on its own.
type Dispatcher struct {
	from     string
	mailers  map[Choice]Mailer
	policy   *bluemonday.Policy
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewDispatcher indexes the mailers by their choice name.
func NewDispatcher(cfg Config, recorder metrics.Recorder, logger *slog.Logger, mailers ...Mailer) *Dispatcher {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	d := &Dispatcher{
		from:     cfg.From,
		mailers:  make(map[Choice]Mailer, len(mailers)),
		policy:   bluemonday.UGCPolicy(),
		recorder: recorder,
		logger:   logger.With("component", "mailer.dispatcher"),
	}
	for _, m := range mailers {
		d.mailers[m.Name()] = m
	}
	return d
}

// Configured reports whether the backend for choice has the credentials it needs.
func (d *Dispatcher) Configured(choice Choice) bool {
	m, ok := d.mailers[choice]
	return ok && m.Configured()
}

// Send validates msg and dispatches it. Every outcome, including panics inside a
// backend, is reported through Result.
func (d *Dispatcher) Send(ctx context.Context, rawChoice string, msg Message) (result Result) {
	if reason := ValidateRecipients(msg.Recipients); reason != "" {
		return Result{Success: false, Message: reason}
	}

	choice, ok := ParseChoice(rawChoice)
	if !ok {
		return Result{Success: false, Message: msgUnsupported + rawChoice}
	}
	mailer, ok := d.mailers[choice]
	if !ok || !mailer.Configured() {
		d.logger.Warn("email provider not configured", "provider", choice)
		d.recorder.RecordEmailSend(string(choice), metrics.OutcomeFailure)
		return Result{Success: false, Message: msgNotConfigured, Provider: string(choice)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("email provider panicked", "provider", choice, "panic", rec)
			d.recorder.RecordEmailSend(string(choice), metrics.OutcomeFailure)
			result = Result{Success: false, Message: fmt.Sprintf("%s%v", msgFailedPrefix, rec), Provider: string(choice)}
		}
	}()

	if msg.From == "" {
		msg.From = d.from
	}
	if strings.TrimSpace(msg.HTML) != "" {
		msg.HTML = d.policy.Sanitize(msg.HTML)
	}

	d.logger.Info("dispatching email", "provider", choice, "recipients", len(msg.Recipients))
	message, err := mailer.Send(ctx, msg)
	if err != nil {
		d.logger.Error("email dispatch failed", "provider", choice, "error", err)
		d.recorder.RecordEmailSend(string(choice), metrics.OutcomeFailure)
		var delivery *DeliveryError
		if errors.As(err, &delivery) {
			return Result{Success: false, Message: delivery.Message, Provider: string(choice)}
		}
		return Result{Success: false, Message: msgFailedPrefix + err.Error(), Provider: string(choice)}
	}
	d.recorder.RecordEmailSend(string(choice), metrics.OutcomeSuccess)
	return Result{Success: true, Message: message, Provider: string(choice)}
}
