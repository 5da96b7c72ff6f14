package services

import (
	"context"
	"fmt"
	"sync"

	"wedding-backend/config"
	"wedding-backend/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"
)

// Notifier is the outbound messaging contract consumed by the write models.
// Implementations may fail; callers treat every failure as non-fatal.
type Notifier interface {
	SendInvitation(to, guestName, eventDate, eventLocation, rsvpURL, responseDeadline string, language models.Language) error
	SendConfirmation(to, guestName string, attending bool, dietary string, language models.Language) error
	PushRSVPSubmitted(guestName string, attending bool)
}

type NotificationService struct {
	fcmOnce sync.Once
	fcm     *messaging.Client
}

var notifService *NotificationService

func GetNotificationService() *NotificationService {
	if notifService == nil {
		notifService = &NotificationService{}
	}
	return notifService
}

// ============================================================
// EMAIL via SendGrid
// ============================================================

func (ns *NotificationService) sendEmail(toEmail, toName, subject, textBody, htmlBody string) error {
	if config.AppConfig.SendGridAPIKey == "" {
		return fmt.Errorf("sendgrid api key not configured")
	}

	from := mail.NewEmail(config.AppConfig.AppName, config.AppConfig.SendGridFrom)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textBody, htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	log.Info().Str("email", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}

func (ns *NotificationService) SendInvitation(to, guestName, eventDate, eventLocation, rsvpURL, responseDeadline string, language models.Language) error {
	t := invitationTemplate(language)
	subject := fmt.Sprintf(t.subject, config.AppConfig.CoupleNames)
	text := fmt.Sprintf(t.text, guestName, config.AppConfig.CoupleNames, eventDate, eventLocation, rsvpURL, responseDeadline)
	html := fmt.Sprintf(t.html, guestName, config.AppConfig.CoupleNames, eventDate, eventLocation, rsvpURL, rsvpURL, responseDeadline)
	return ns.sendEmail(to, guestName, subject, text, html)
}

func (ns *NotificationService) SendConfirmation(to, guestName string, attending bool, dietary string, language models.Language) error {
	t := confirmationTemplate(language, attending)
	subject := fmt.Sprintf(t.subject, config.AppConfig.CoupleNames)
	text := fmt.Sprintf(t.text, guestName, dietary)
	html := fmt.Sprintf(t.html, guestName, dietary)
	return ns.sendEmail(to, guestName, subject, text, html)
}

// ============================================================
// PUSH to the couple via FCM
// ============================================================

// PushRSVPSubmitted notifies the couple's device about a fresh response.
// Entirely best effort: misconfiguration or delivery errors are only logged.
func (ns *NotificationService) PushRSVPSubmitted(guestName string, attending bool) {
	if config.AppConfig.CoupleFCMToken == "" {
		return
	}

	client := ns.fcmClient()
	if client == nil {
		return
	}

	body := fmt.Sprintf("%s has declined", guestName)
	if attending {
		body = fmt.Sprintf("%s is coming!", guestName)
	}

	_, err := client.Send(context.Background(), &messaging.Message{
		Token: config.AppConfig.CoupleFCMToken,
		Notification: &messaging.Notification{
			Title: "New RSVP response",
			Body:  body,
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to send RSVP push notification")
		return
	}
	log.Info().Str("guest", guestName).Bool("attending", attending).Msg("RSVP push sent")
}

func (ns *NotificationService) fcmClient() *messaging.Client {
	ns.fcmOnce.Do(func() {
		app, err := firebase.NewApp(context.Background(), nil,
			option.WithCredentialsFile(config.AppConfig.FirebaseCredPath))
		if err != nil {
			log.Warn().Err(err).Msg("Firebase not available, running without push")
			return
		}
		client, err := app.Messaging(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("Firebase messaging not available")
			return
		}
		ns.fcm = client
	})
	return ns.fcm
}

// ============================================================
// LOCALIZED TEMPLATES
// ============================================================

type emailTemplate struct {
	subject string
	text    string
	html    string
}

const invitationHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #fdfbf7; border: 1px solid #e8e0d0; border-radius: 8px; padding: 32px; text-align: center;">
		<h2 style="color: #8a6d3b; margin-top: 0;">%s</h2>
		%s
	</div>
</body>
</html>`

func invitationTemplate(language models.Language) emailTemplate {
	switch language {
	case models.LanguageES:
		return emailTemplate{
			subject: "Estás invitado a la boda de %s",
			text: "Hola %s,\n\n%s se casan el %s en %s y les encantaría contar contigo.\n\n" +
				"Confirma tu asistencia aquí: %s\n\nPor favor responde antes del %s.",
			html: fmt.Sprintf(invitationHTML, "¡Estás invitado!",
				`<p>Hola <strong>%s</strong>,</p>
		<p><strong>%s</strong> se casan el <strong>%s</strong> en <strong>%s</strong> y les encantaría contar contigo.</p>
		<div style="margin: 24px 0;">
			<a href="%s" style="background: #8a6d3b; color: white; padding: 12px 32px; border-radius: 6px; text-decoration: none;">Confirmar asistencia</a>
		</div>
		<p style="color: #999; font-size: 13px;">O abre este enlace: %s</p>
		<p>Por favor responde antes del <strong>%s</strong>.</p>`),
		}
	case models.LanguageNL:
		return emailTemplate{
			subject: "Je bent uitgenodigd voor de bruiloft van %s",
			text: "Hoi %s,\n\n%s trouwen op %s in %s en zien je er graag bij.\n\n" +
				"Laat hier weten of je komt: %s\n\nGraag reageren voor %s.",
			html: fmt.Sprintf(invitationHTML, "Je bent uitgenodigd!",
				`<p>Hoi <strong>%s</strong>,</p>
		<p><strong>%s</strong> trouwen op <strong>%s</strong> in <strong>%s</strong> en zien je er graag bij.</p>
		<div style="margin: 24px 0;">
			<a href="%s" style="background: #8a6d3b; color: white; padding: 12px 32px; border-radius: 6px; text-decoration: none;">Laat het ons weten</a>
		</div>
		<p style="color: #999; font-size: 13px;">Of open deze link: %s</p>
		<p>Graag reageren voor <strong>%s</strong>.</p>`),
		}
	default:
		return emailTemplate{
			subject: "You're invited to the wedding of %s",
			text: "Hi %s,\n\n%s are getting married on %s at %s and would love to have you there.\n\n" +
				"Let us know if you can make it: %s\n\nPlease respond by %s.",
			html: fmt.Sprintf(invitationHTML, "You're invited!",
				`<p>Hi <strong>%s</strong>,</p>
		<p><strong>%s</strong> are getting married on <strong>%s</strong> at <strong>%s</strong> and would love to have you there.</p>
		<div style="margin: 24px 0;">
			<a href="%s" style="background: #8a6d3b; color: white; padding: 12px 32px; border-radius: 6px; text-decoration: none;">RSVP now</a>
		</div>
		<p style="color: #999; font-size: 13px;">Or open this link: %s</p>
		<p>Please respond by <strong>%s</strong>.</p>`),
		}
	}
}

func confirmationTemplate(language models.Language, attending bool) emailTemplate {
	switch language {
	case models.LanguageES:
		if attending {
			return emailTemplate{
				subject: "Confirmación de asistencia — boda de %s",
				text:    "Hola %s,\n\nHemos registrado tu confirmación. ¡Nos vemos en la boda!\n\nPreferencias dietéticas: %s",
				html: fmt.Sprintf(invitationHTML, "¡Nos vemos allí!",
					`<p>Hola <strong>%s</strong>,</p>
		<p>Hemos registrado tu confirmación. ¡Nos vemos en la boda!</p>
		<p>Preferencias dietéticas: <strong>%s</strong></p>`),
			}
		}
		return emailTemplate{
			subject: "Respuesta registrada — boda de %s",
			text:    "Hola %s,\n\nSentimos que no puedas venir. Hemos registrado tu respuesta.\n\nPreferencias dietéticas: %s",
			html: fmt.Sprintf(invitationHTML, "Te echaremos de menos",
				`<p>Hola <strong>%s</strong>,</p>
		<p>Sentimos que no puedas venir. Hemos registrado tu respuesta.</p>
		<p>Preferencias dietéticas: <strong>%s</strong></p>`),
		}
	case models.LanguageNL:
		if attending {
			return emailTemplate{
				subject: "Bevestiging — bruiloft van %s",
				text:    "Hoi %s,\n\nJe komst is bevestigd. Tot op de bruiloft!\n\nDieetwensen: %s",
				html: fmt.Sprintf(invitationHTML, "Tot dan!",
					`<p>Hoi <strong>%s</strong>,</p>
		<p>Je komst is bevestigd. Tot op de bruiloft!</p>
		<p>Dieetwensen: <strong>%s</strong></p>`),
			}
		}
		return emailTemplate{
			subject: "Antwoord ontvangen — bruiloft van %s",
			text:    "Hoi %s,\n\nJammer dat je er niet bij kunt zijn. Je antwoord is opgeslagen.\n\nDieetwensen: %s",
			html: fmt.Sprintf(invitationHTML, "We zullen je missen",
				`<p>Hoi <strong>%s</strong>,</p>
		<p>Jammer dat je er niet bij kunt zijn. Je antwoord is opgeslagen.</p>
		<p>Dieetwensen: <strong>%s</strong></p>`),
		}
	default:
		if attending {
			return emailTemplate{
				subject: "RSVP confirmed — wedding of %s",
				text:    "Hi %s,\n\nYour attendance is confirmed. See you at the wedding!\n\nDietary preferences: %s",
				html: fmt.Sprintf(invitationHTML, "See you there!",
					`<p>Hi <strong>%s</strong>,</p>
		<p>Your attendance is confirmed. See you at the wedding!</p>
		<p>Dietary preferences: <strong>%s</strong></p>`),
			}
		}
		return emailTemplate{
			subject: "RSVP received — wedding of %s",
			text:    "Hi %s,\n\nWe're sorry you can't make it. Your response has been recorded.\n\nDietary preferences: %s",
			html: fmt.Sprintf(invitationHTML, "We'll miss you",
				`<p>Hi <strong>%s</strong>,</p>
		<p>We're sorry you can't make it. Your response has been recorded.</p>
		<p>Dietary preferences: <strong>%s</strong></p>`),
		}
	}
}
