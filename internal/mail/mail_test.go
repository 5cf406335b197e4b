package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProcessedVideo(t *testing.T) {
	body, err := RenderProcessedVideo(ProcessedVideoEmail{
		DownloadURL: "https://example.com/processed-videos/abc.mp4?sig=xyz",
		ExpiresAt:   time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, body, `href="https://example.com/processed-videos/abc.mp4?sig=xyz"`)
	assert.Contains(t, body, "Jun 12, 2025")
}

func TestRenderProcessedVideoEscapesURL(t *testing.T) {
	body, err := RenderProcessedVideo(ProcessedVideoEmail{
		DownloadURL: `https://example.com/x?a=1&b=2`,
		ExpiresAt:   time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(t, body, "a=1&amp;b=2")
}

func TestRenderNewsletter(t *testing.T) {
	body, err := RenderNewsletter(NewsletterEmail{
		Title:       "Summer Sale",
		Description: "Everything must go",
		Images:      []string{"https://example.com/img1.png", "https://example.com/img2.png"},
	})
	require.NoError(t, err)
	assert.Contains(t, body, "<h1>Summer Sale</h1>")
	assert.Contains(t, body, "Everything must go")
	assert.Contains(t, body, "img1.png")
	assert.Contains(t, body, "img2.png")
}
