package simulated

import (
	"context"

	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
)

// Mailer reports success without any network I/O.
type Mailer struct{}

func New() Mailer { return Mailer{} }

func (Mailer) Name() mailer.Choice { return mailer.ChoiceSimulated }

func (Mailer) Configured() bool { return true }

func (Mailer) Send(context.Context, mailer.Message) (string, error) {
	return "Email simulation successful (demo mode)", nil
}
