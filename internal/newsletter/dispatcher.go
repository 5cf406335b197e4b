package newsletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"instore-backend/internal/database"
	"instore-backend/internal/mail"
	"instore-backend/internal/messaging"
	"instore-backend/internal/translate"
	"instore-backend/pkg/api"

	"gorm.io/gorm"
)

// Dispatcher consumes newsletter dispatch tasks and delivers the newsletter
// to every subscribed recipient, translating the copy when the requested
// language has no authored version.
type Dispatcher struct {
	db         *gorm.DB
	mailer     mail.Mailer
	translator translate.Translator
}

func NewDispatcher(db *gorm.DB, mailer mail.Mailer, translator translate.Translator) *Dispatcher {
	return &Dispatcher{db: db, mailer: mailer, translator: translator}
}

// Run processes tasks until the receiver's channel closes or the context is
// cancelled. Malformed payloads are rejected, delivery failures are nacked.
func (d *Dispatcher) Run(ctx context.Context, receiver messaging.Receiver) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-receiver.Tasks():
			if !ok {
				return
			}
			d.processTask(ctx, task)
		}
	}
}

func (d *Dispatcher) processTask(ctx context.Context, task messaging.Task) {
	if task.Type() != messaging.NewsletterQueue {
		slog.Error("received task from unknown queue", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting task", "error", err)
		}
		return
	}

	var payload messaging.NewsletterDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error unmarshalling newsletter dispatch payload", "error", err)
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting task", "error", err)
		}
		return
	}

	if err := d.Dispatch(ctx, payload); err != nil {
		slog.Error("error dispatching newsletter", "newsletter_id", payload.NewsletterId, "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error nacking task", "error", err)
		}
		return
	}

	slog.Info("newsletter dispatched", "newsletter_id", payload.NewsletterId)
	if err := task.Ack(); err != nil {
		slog.Error("error acking task", "error", err)
	}
}

// Dispatch sends one newsletter to all of its recipients. A failure for an
// individual recipient does not stop delivery to the rest; an error is
// returned if any recipient could not be reached.
func (d *Dispatcher) Dispatch(ctx context.Context, payload messaging.NewsletterDispatchPayload) error {
	var record database.Newsletter
	if err := d.db.WithContext(ctx).First(&record, "id = ?", payload.NewsletterId).Error; err != nil {
		return fmt.Errorf("error loading newsletter %s: %w", payload.NewsletterId, err)
	}

	var contents []api.NewsletterContent
	if err := json.Unmarshal(record.Contents, &contents); err != nil {
		return fmt.Errorf("error parsing newsletter contents: %w", err)
	}
	if len(contents) == 0 {
		return fmt.Errorf("newsletter %s has no content", payload.NewsletterId)
	}

	var images []string
	if len(record.Images) > 0 {
		if err := json.Unmarshal(record.Images, &images); err != nil {
			return fmt.Errorf("error parsing newsletter images: %w", err)
		}
	}

	var recipients []string
	if len(record.Recipients) > 0 {
		if err := json.Unmarshal(record.Recipients, &recipients); err != nil {
			return fmt.Errorf("error parsing newsletter recipients: %w", err)
		}
	}
	if len(recipients) == 0 {
		slog.Warn("newsletter has no recipients, nothing to send", "newsletter_id", payload.NewsletterId)
		return nil
	}

	content := d.selectContent(ctx, contents, payload.Language)

	body, err := mail.RenderNewsletter(mail.NewsletterEmail{
		Title:       content.Title,
		Description: content.Description,
		Images:      images,
	})
	if err != nil {
		return err
	}

	var failed []string
	for _, recipient := range recipients {
		if err := d.mailer.Send([]string{recipient}, content.Title, body); err != nil {
			slog.Error("error sending newsletter to recipient", "newsletter_id", payload.NewsletterId, "recipient", recipient, "error", err)
			failed = append(failed, recipient)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to deliver newsletter to %d of %d recipients", len(failed), len(recipients))
	}

	return nil
}

// selectContent returns the authored content for the requested language, or
// translates the first authored content when no match exists. Translation
// failures fall back to the untranslated copy.
func (d *Dispatcher) selectContent(ctx context.Context, contents []api.NewsletterContent, language string) api.NewsletterContent {
	if language == "" {
		return contents[0]
	}

	for _, c := range contents {
		if strings.EqualFold(c.Language, language) {
			return c
		}
	}

	base := contents[0]
	translated := api.NewsletterContent{Language: language}

	title, err := d.translator.Translate(ctx, base.Title, language)
	if err != nil {
		slog.Warn("error translating newsletter title, using original", "language", language, "error", err)
		title = base.Title
	}
	translated.Title = title

	description, err := d.translator.Translate(ctx, base.Description, language)
	if err != nil {
		slog.Warn("error translating newsletter description, using original", "language", language, "error", err)
		description = base.Description
	}
	translated.Description = description

	return translated
}
