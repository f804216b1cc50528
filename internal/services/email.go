package services

import (
	"context"
	"fmt"
	"log"

	"hackomatic/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendPhaseAnnouncement sends the "phase_changed" template to one participant.
func (s *emailService) SendPhaseAnnouncement(ctx context.Context, data *domain.PhaseAnnouncementEmailData) error {
	if data == nil {
		return fmt.Errorf("phase announcement data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("phase_changed", data)
	if err != nil {
		return fmt.Errorf("failed to render phase_changed template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send phase announcement: %w", err)
	}
	log.Printf("[EMAIL] Phase announcement (%s) sent to %s", data.Phase, data.Email)
	return nil
}
