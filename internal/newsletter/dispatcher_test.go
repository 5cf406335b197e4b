package newsletter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"instore-backend/internal/database"
	"instore-backend/internal/messaging"
	"instore-backend/internal/newsletter"
	"instore-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []sentMail
	fail map[string]bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *recordingMailer) Send(to []string, subject, body string) error {
	for _, addr := range to {
		if m.fail[addr] {
			return fmt.Errorf("smtp error for %s", addr)
		}
		m.sent = append(m.sent, sentMail{to: addr, subject: subject, body: body})
	}
	return nil
}

type fakeTranslator struct {
	err error
}

func (t *fakeTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return text + " [" + targetLang + "]", nil
}

func createNewsletter(t *testing.T, record *database.Newsletter, contents []api.NewsletterContent, recipients []string) {
	t.Helper()

	contentsJson, err := json.Marshal(contents)
	require.NoError(t, err)
	recipientsJson, err := json.Marshal(recipients)
	require.NoError(t, err)
	imagesJson, err := json.Marshal([]string{"https://example.com/banner.png"})
	require.NoError(t, err)

	record.Contents = contentsJson
	record.Recipients = recipientsJson
	record.Images = imagesJson
}

func TestDispatchSendsToAllRecipients(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	record := database.Newsletter{Id: uuid.New()}
	createNewsletter(t, &record,
		[]api.NewsletterContent{{Title: "Hello", Description: "World", Language: "en"}},
		[]string{"a@b.com", "c@d.com"})
	require.NoError(t, db.Create(&record).Error)

	mailer := &recordingMailer{}
	d := newsletter.NewDispatcher(db, mailer, &fakeTranslator{})

	err = d.Dispatch(context.Background(), messaging.NewsletterDispatchPayload{NewsletterId: record.Id})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "a@b.com", mailer.sent[0].to)
	assert.Equal(t, "c@d.com", mailer.sent[1].to)
	assert.Equal(t, "Hello", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "World")
	assert.Contains(t, mailer.sent[0].body, "banner.png")
}

func TestDispatchTranslatesMissingLanguage(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	record := database.Newsletter{Id: uuid.New()}
	createNewsletter(t, &record,
		[]api.NewsletterContent{{Title: "Hello", Description: "World", Language: "en"}},
		[]string{"a@b.com"})
	require.NoError(t, db.Create(&record).Error)

	mailer := &recordingMailer{}
	d := newsletter.NewDispatcher(db, mailer, &fakeTranslator{})

	err = d.Dispatch(context.Background(), messaging.NewsletterDispatchPayload{NewsletterId: record.Id, Language: "es"})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Hello [es]", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "World [es]")
}

func TestDispatchUsesAuthoredLanguageWhenPresent(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	record := database.Newsletter{Id: uuid.New()}
	createNewsletter(t, &record,
		[]api.NewsletterContent{
			{Title: "Hello", Description: "World", Language: "en"},
			{Title: "Hola", Description: "Mundo", Language: "es"},
		},
		[]string{"a@b.com"})
	require.NoError(t, db.Create(&record).Error)

	mailer := &recordingMailer{}
	d := newsletter.NewDispatcher(db, mailer, &fakeTranslator{err: fmt.Errorf("should not be called")})

	err = d.Dispatch(context.Background(), messaging.NewsletterDispatchPayload{NewsletterId: record.Id, Language: "es"})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Hola", mailer.sent[0].subject)
}

func TestDispatchFallsBackOnTranslationFailure(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	record := database.Newsletter{Id: uuid.New()}
	createNewsletter(t, &record,
		[]api.NewsletterContent{{Title: "Hello", Description: "World", Language: "en"}},
		[]string{"a@b.com"})
	require.NoError(t, db.Create(&record).Error)

	mailer := &recordingMailer{}
	d := newsletter.NewDispatcher(db, mailer, &fakeTranslator{err: fmt.Errorf("api down")})

	err = d.Dispatch(context.Background(), messaging.NewsletterDispatchPayload{NewsletterId: record.Id, Language: "es"})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Hello", mailer.sent[0].subject)
}

func TestDispatchContinuesPastFailedRecipient(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	record := database.Newsletter{Id: uuid.New()}
	createNewsletter(t, &record,
		[]api.NewsletterContent{{Title: "Hello", Description: "World", Language: "en"}},
		[]string{"bad@b.com", "good@d.com"})
	require.NoError(t, db.Create(&record).Error)

	mailer := &recordingMailer{fail: map[string]bool{"bad@b.com": true}}
	d := newsletter.NewDispatcher(db, mailer, &fakeTranslator{})

	err = d.Dispatch(context.Background(), messaging.NewsletterDispatchPayload{NewsletterId: record.Id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "good@d.com", mailer.sent[0].to)
}

func TestDispatchMissingNewsletter(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	d := newsletter.NewDispatcher(db, &recordingMailer{}, &fakeTranslator{})
	err = d.Dispatch(context.Background(), messaging.NewsletterDispatchPayload{NewsletterId: uuid.New()})
	assert.Error(t, err)
}

func TestRunProcessesQueuedTasks(t *testing.T) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	record := database.Newsletter{Id: uuid.New()}
	createNewsletter(t, &record,
		[]api.NewsletterContent{{Title: "Hello", Description: "World", Language: "en"}},
		[]string{"a@b.com"})
	require.NoError(t, db.Create(&record).Error)

	queue := messaging.NewInMemoryQueue()
	require.NoError(t, queue.PublishNewsletterDispatch(context.Background(), messaging.NewsletterDispatchPayload{NewsletterId: record.Id}))
	queue.Close()

	mailer := &recordingMailer{}
	d := newsletter.NewDispatcher(db, mailer, &fakeTranslator{})
	d.Run(context.Background(), queue)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@b.com", mailer.sent[0].to)
}
