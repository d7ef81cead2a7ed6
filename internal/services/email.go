package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"groupevents/internal/domain"
)

const groupInvitationTemplate = "group_invitation"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendGroupInvitation renders the "group_invitation" template and mails it to the invited address.
func (s *emailService) SendGroupInvitation(ctx context.Context, data *domain.GroupInvitationEmailData) error {
	if data == nil {
		return errors.New("group invitation email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(groupInvitationTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render group invitation template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send group invitation email: %w", err)
	}
	s.logger.DebugContext(ctx, "group invitation email sent", "group_id", data.GroupID)
	return nil
}
