package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer delivers transactional email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(to []string, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST,required"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME,required"`
	Password string `env:"SMTP_PASSWORD,required"`
	From     string `env:"SMTP_FROM"`
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to []string, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

var processedVideoTmpl = template.Must(template.New("processed-video").Parse(`<html>
<body>
<p>Hi,</p>
<p>Your video has been processed and is ready to download:</p>
<p><a href="{{.DownloadURL}}">Download your video</a></p>
<p>The link expires on {{.ExpiresAt.Format "Jan 2, 2006"}}.</p>
<p>InStore</p>
</body>
</html>`))

type ProcessedVideoEmail struct {
	DownloadURL string
	ExpiresAt   time.Time
}

// RenderProcessedVideo builds the notification body for a finished upload.
func RenderProcessedVideo(data ProcessedVideoEmail) (string, error) {
	var buf bytes.Buffer
	if err := processedVideoTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error rendering email template: %w", err)
	}
	return buf.String(), nil
}

var newsletterTmpl = template.Must(template.New("newsletter").Parse(`<html>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
{{range .Images}}<img src="{{.}}" alt="" style="max-width:100%"/>
{{end}}<p>InStore</p>
</body>
</html>`))

type NewsletterEmail struct {
	Title       string
	Description string
	Images      []string
}

func RenderNewsletter(data NewsletterEmail) (string, error) {
	var buf bytes.Buffer
	if err := newsletterTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error rendering email template: %w", err)
	}
	return buf.String(), nil
}
