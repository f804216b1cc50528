package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// PhaseAnnouncementEmailData holds data for the phase change email.
type PhaseAnnouncementEmailData struct {
	Email         string
	DisplayName   string
	Phase         Phase
	PreviousPhase Phase
	URL           string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendPhaseAnnouncement(ctx context.Context, data *PhaseAnnouncementEmailData) error
}
