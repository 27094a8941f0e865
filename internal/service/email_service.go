package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"edufinanzas/internal/logger"
)

// SESAPI is the part of the SES v2 client the service calls
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailConfig configures outgoing mail
type EmailConfig struct {
	Region     string
	FromEmail  string
	FromName   string
	AppBaseURL string
	Debug      bool
}

// EmailService sends account emails through Amazon SES. Without a sender
// address it is disabled and every send is a logged no-op.
type EmailService struct {
	client  SESAPI
	cfg     EmailConfig
	enabled bool
	log     *logger.Logger
}

func NewEmailService(ctx context.Context, cfg EmailConfig, log *logger.Logger) (*EmailService, error) {
	log = log.With("service", "EmailService")
	if cfg.FromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{cfg: cfg, log: log}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Info("email service enabled", "from", cfg.FromEmail, "region", cfg.Region)
	return NewEmailServiceWithClient(sesv2.NewFromConfig(awsCfg), cfg, log), nil
}

// NewEmailServiceWithClient builds an enabled service around an existing client
func NewEmailServiceWithClient(client SESAPI, cfg EmailConfig, log *logger.Logger) *EmailService {
	return &EmailService{client: client, cfg: cfg, enabled: true, log: log}
}

func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1 style="color: #1f7a4d;">¡Bienvenido a EduFinanzas!</h1>
		<p>Hola {{.Name}},</p>
		<p>Tu cuenta fue creada correctamente. Empieza con el primer tema y gana monedas resolviendo retos.</p>
		<p><a href="{{.LoginURL}}" style="display: inline-block; padding: 12px 30px; background-color: #1f7a4d; color: white; text-decoration: none; border-radius: 5px;">Iniciar sesión</a></p>
		<p style="font-size: 12px; color: #666;">Este es un correo automático de EduFinanzas. Por favor no respondas.</p>
	</div>
</body>
</html>`))

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		s.log.Debug("skipping welcome email, service disabled", "to", toEmail)
		return nil
	}

	data := struct{ Name, LoginURL string }{toName, strings.TrimRight(s.cfg.AppBaseURL, "/") + "/login"}
	var html strings.Builder
	if err := welcomeHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	text := fmt.Sprintf("Hola %s,\n\nTu cuenta de EduFinanzas fue creada correctamente.\n\nInicia sesión: %s\n\n---\nEste es un correo automático de EduFinanzas. Por favor no respondas.\n",
		toName, data.LoginURL)

	return s.send(ctx, toEmail, "¡Bienvenido a EduFinanzas!", html.String(), text)
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}
	if s.cfg.Debug {
		s.log.Debug("sending email", "from", from, "to", toEmail, "subject", subject, "html_bytes", len(htmlBody))
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{toEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	s.log.Info("email sent", "to", toEmail, "subject", subject, "message_id", aws.ToString(out.MessageId))
	return nil
}
