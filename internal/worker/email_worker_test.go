package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct{ to, subject, text, html string }

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, text, html})
	return nil
}

func emailJob(t *testing.T, p EmailJobPayload) Job {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return Job{Type: JobEmail, Payload: raw}
}

func TestEmailWorker_Sends(t *testing.T) {
	sender := &fakeSender{}

	NewEmailWorker(sender).Process(context.Background(), emailJob(t, EmailJobPayload{
		ToEmail: "cliente@exemplo.com", Subject: "NFC-e", Body: "link",
	}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "cliente@exemplo.com", sender.sent[0].to)
	assert.Equal(t, "link", sender.sent[0].text)
}

func TestEmailWorker_SkipsEmptyRecipientAndBadPayload(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender)

	w.Process(context.Background(), emailJob(t, EmailJobPayload{Subject: "x"}))
	w.Process(context.Background(), Job{Type: JobEmail, Payload: json.RawMessage(`{"to_email":`)})

	assert.Empty(t, sender.sent)
}

func TestEmailWorker_SendFailureDoesNotPanic(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp: 421")}

	assert.NotPanics(t, func() {
		NewEmailWorker(sender).Process(context.Background(), emailJob(t, EmailJobPayload{ToEmail: "a@b.com"}))
	})
}

type panicHandler struct{}

func (panicHandler) Process(context.Context, Job) { panic("boom") }

func TestProcessJob_RecoversAndIgnoresUnknown(t *testing.T) {
	handlers := map[string]Handler{QueueEmail: panicHandler{}}

	assert.NotPanics(t, func() {
		processJob(context.Background(), handlers, QueueEmail, `{"type":"email","payload":{}}`)
		processJob(context.Background(), handlers, "jobs:unknown", `{"type":"x"}`)
		processJob(context.Background(), handlers, QueueEmail, `not json`)
	})
}
