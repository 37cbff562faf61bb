package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/config"
	"github.com/webermont/LeiaMais/internal/models"
)

// Notifier tells members about fines, overdue loans and blocks. Callers log failures and
// carry on; a notification never undoes the operation that triggered it.
type Notifier interface {
	NotifyFineCreated(ctx context.Context, user models.UserResponse, fine models.FineResponse) error
	NotifyLoanOverdue(ctx context.Context, user models.UserResponse, fine models.FineResponse, daysOverdue int) error
	NotifyUserBlocked(ctx context.Context, user models.UserResponse) error
}

// NewNotifier returns a SendGrid notifier when email is enabled and a
// log-only notifier otherwise.
func NewNotifier(cfg config.EmailConfig, logger *zap.Logger) Notifier {
	if cfg.Enabled && cfg.SendGridAPIKey != "" {
		return NewSendGridNotifier(sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg.FromEmail, cfg.FromName, logger)
	}
	return NewLogNotifier(logger)
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyFineCreated(_ context.Context, user models.UserResponse, fine models.FineResponse) error {
	n.logger.Info("Fine notification",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Int64("fine_id", fine.ID),
		zap.String("amount", fine.Amount.StringFixed(2)),
	)
	return nil
}

func (n *LogNotifier) NotifyLoanOverdue(_ context.Context, user models.UserResponse, fine models.FineResponse, daysOverdue int) error {
	n.logger.Info("Overdue notification",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Int64("loan_id", fine.LoanID),
		zap.Int("days_overdue", daysOverdue),
		zap.String("amount", fine.Amount.StringFixed(2)),
	)
	return nil
}

func (n *LogNotifier) NotifyUserBlocked(_ context.Context, user models.UserResponse) error {
	n.logger.Info("Block notification",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("reason", user.BlockReason),
	)
	return nil
}

// MailSender is the part of *sendgrid.Client the notifier uses.
type MailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridNotifier struct {
	client    MailSender
	templates *EmailTemplates
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

func NewSendGridNotifier(client MailSender, fromEmail, fromName string, logger *zap.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		client:    client,
		templates: NewEmailTemplates(),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

func (n *SendGridNotifier) NotifyFineCreated(_ context.Context, user models.UserResponse, fine models.FineResponse) error {
	return n.sendTemplate(user, TemplateFineCreated, map[string]string{
		"Name":    user.Name,
		"Amount":  fine.Amount.StringFixed(2),
		"LoanID":  strconv.FormatInt(fine.LoanID, 10),
		"DueDate": fine.DueDate.Format("2006-01-02"),
	})
}

// NotifyLoanOverdue sends the overdue notice raised by the automatic fine run.
func (n *SendGridNotifier) NotifyLoanOverdue(_ context.Context, user models.UserResponse, fine models.FineResponse, daysOverdue int) error {
	return n.sendTemplate(user, TemplateLoanOverdue, map[string]string{
		"Name":        user.Name,
		"LoanID":      strconv.FormatInt(fine.LoanID, 10),
		"DueDate":     fine.DueDate.Format("2006-01-02"),
		"DaysOverdue": strconv.Itoa(daysOverdue),
		"Amount":      fine.Amount.StringFixed(2),
	})
}

func (n *SendGridNotifier) NotifyUserBlocked(_ context.Context, user models.UserResponse) error {
	until := ""
	if user.BlockedUntil != nil {
		until = user.BlockedUntil.Format("2006-01-02")
	}
	return n.sendTemplate(user, TemplateUserBlocked, map[string]string{
		"Name":   user.Name,
		"Until":  until,
		"Reason": user.BlockReason,
	})
}

func (n *SendGridNotifier) sendTemplate(user models.UserResponse, name string, data map[string]string) error {
	email, err := n.templates.Render(name, data)
	if err != nil {
		return err
	}
	return n.send(user.Email, user.Name, email.Subject, email.PlainText, email.HTML)
}

func (n *SendGridNotifier) send(to, toName, subject, plainText, htmlContent string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	recipient := mail.NewEmail(toName, to)

	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	response, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	n.logger.Debug("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
