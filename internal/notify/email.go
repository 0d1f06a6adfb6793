package notify

import (
	"context"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"pricewatch/config"
)

// EmailNotifier delivers alerts over SMTP. Credentials are resolved by the
// caller and passed in at construction; nothing here reads the environment.
type EmailNotifier struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func NewEmailNotifier(cfg config.SMTPConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger}
}

func (n *EmailNotifier) Send(ctx context.Context, subject, message string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return &DeliveryError{Transport: "email", Err: err}
	}
	if err := msg.To(recipients...); err != nil {
		return &DeliveryError{Transport: "email", Err: err}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, message)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return &DeliveryError{Transport: "email", Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &DeliveryError{Transport: "email", Err: err}
	}
	n.logger.Info("alert email sent", zap.Int("recipients", len(recipients)))
	return nil
}
