package worker

// email_worker.go
// Processes email jobs from QueueEmail.
// Sends the NFC-e links to the customer via SMTP.

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html,omitempty"`
}

// Sender delivers one message. *infra.Mailer implements it.
type Sender interface {
	Send(to, subject, text, html string) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	sender Sender
}

func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

func (w *EmailWorker) Process(_ context.Context, job Job) {
	var payload EmailJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return
	}

	if err := w.sender.Send(payload.ToEmail, payload.Subject, payload.Body, payload.HTML); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: email sent")
}
