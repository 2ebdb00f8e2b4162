package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
)

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewEmailService creates a SendGrid-backed mailer. With an empty API key
// every send is logged and skipped, which keeps local development quiet.
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	var client *sendgrid.Client
	if apiKey != "" {
		client = sendgrid.NewSendClient(apiKey)
	}
	return &emailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(ctx context.Context, toEmail, toName, subject, plain, html string) error {
	if s.client == nil {
		logger.Info("email sending disabled, skipping", "to", toEmail, "subject", subject)
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	logger.ExternalServiceCall("sendgrid", "send", "to", toEmail, "subject", subject)
	resp, err := s.client.SendWithContext(ctx, message)
	logger.ExternalServiceResult("sendgrid", "send", err, "to", toEmail)
	if err != nil {
		return fmt.Errorf("sending email to %s: %w", toEmail, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email to %s: status %d", toEmail, resp.StatusCode)
	}
	return nil
}

var statusSubjects = map[domain.TransactionStatus]string{
	domain.StatusEscrowHeld: "Payment received for your rental",
	domain.StatusActive:     "Your rental is now active",
	domain.StatusCompleted:  "Your rental is complete",
	domain.StatusCancelled:  "Your rental was cancelled",
}

func (s *emailService) SendStatusNotification(ctx context.Context, email, name, itemTitle string, status domain.TransactionStatus) error {
	subject, ok := statusSubjects[status]
	if !ok {
		return nil
	}
	plain := fmt.Sprintf("Hi %s,\n\nThe rental of %q is now %s.\n\nThe AroundU Team",
		name, itemTitle, strings.ReplaceAll(strings.ToLower(string(status)), "_", " "))
	html := fmt.Sprintf("<p>Hi %s,</p><p>The rental of <strong>%s</strong> is now <strong>%s</strong>.</p><p>The AroundU Team</p>",
		name, itemTitle, strings.ReplaceAll(strings.ToLower(string(status)), "_", " "))
	return s.send(ctx, email, name, subject, plain, html)
}

func (s *emailService) SendProximityCode(ctx context.Context, email, name, code string, phase domain.HandoverPhase) error {
	action := "pick up"
	if phase == domain.PhaseReturn {
		action = "return"
	}
	subject := fmt.Sprintf("Your %s code", action)
	plain := fmt.Sprintf("Hi %s,\n\nShow this code to the other party at the %s: %s\n\nDo not share it beforehand.\n\nThe AroundU Team",
		name, action, code)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Show this code to the other party at the %s:</p><h2>%s</h2><p>Do not share it beforehand.</p><p>The AroundU Team</p>",
		name, action, code)
	return s.send(ctx, email, name, subject, plain, html)
}

func (s *emailService) SendDisputeNotification(ctx context.Context, email, name, itemTitle, reason string) error {
	subject := "A rental was flagged for review"
	if reason == "" {
		reason = "not provided"
	}
	plain := fmt.Sprintf("Hi %s,\n\nThe rental of %q was flagged for review.\nReason: %s\n\nOur team will follow up shortly.\n\nThe AroundU Team",
		name, itemTitle, reason)
	html := fmt.Sprintf("<p>Hi %s,</p><p>The rental of <strong>%s</strong> was flagged for review.</p><p>Reason: %s</p><p>Our team will follow up shortly.</p><p>The AroundU Team</p>",
		name, itemTitle, reason)
	return s.send(ctx, email, name, subject, plain, html)
}

func (s *emailService) SendReturnReminder(ctx context.Context, email, name, itemTitle, endDate string) error {
	subject := "Reminder: your rental is due back"
	plain := fmt.Sprintf("Hi %s,\n\nThe rental of %q was due back on %s. Please arrange the return handover with the owner.\n\nThe AroundU Team",
		name, itemTitle, endDate)
	html := fmt.Sprintf("<p>Hi %s,</p><p>The rental of <strong>%s</strong> was due back on %s. Please arrange the return handover with the owner.</p><p>The AroundU Team</p>",
		name, itemTitle, endDate)
	return s.send(ctx, email, name, subject, plain, html)
}
