package translate

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://ftapi.pythonanywhere.com"

// Translator converts text between languages. Implementations should treat
// failures as recoverable; callers fall back to the untranslated text.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type Client struct {
	http *resty.Client
}

type translateResponse struct {
	DestinationText string `json:"destination-text"`
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http: resty.New().SetBaseURL(baseURL),
	}
}

func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	var result translateResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sl":   "auto",
			"dl":   targetLang,
			"text": text,
		}).
		SetResult(&result).
		Get("/translate")
	if err != nil {
		return "", fmt.Errorf("error calling translation api: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("translation api returned status %d", res.StatusCode())
	}
	if result.DestinationText == "" {
		return "", fmt.Errorf("translation api returned empty result")
	}
	return result.DestinationText, nil
}
