package words

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placeholder is shown when no meaning could be found.
const Placeholder = "Anlam bulunamadı."

// MeaningCache stores successful lookups.
type MeaningCache interface {
	Get(ctx context.Context, word string) (string, bool, error)
	Set(ctx context.Context, word, meaning string) error
}

// MeaningClient looks up word definitions from a TDK-style dictionary API.
// Lookups are best-effort: every failure degrades to Placeholder.
type MeaningClient struct {
	baseURL    string
	httpClient *http.Client
	cache      MeaningCache
	logger     zerolog.Logger
}

func NewMeaningClient(baseURL string, httpClient *http.Client, cache MeaningCache, logger zerolog.Logger) *MeaningClient {
	if baseURL == "" {
		baseURL = "https://sozluk.gov.tr/gts"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}
	return &MeaningClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
		logger:     logger.With().Str("component", "meaning_client").Logger(),
	}
}

type gtsEntry struct {
	Word     string `json:"madde"`
	Meanings []struct {
		Text string `json:"anlam"`
	} `json:"anlamlarListe"`
}

// Meaning returns the first definition of word, or Placeholder.
func (c *MeaningClient) Meaning(ctx context.Context, word string) string {
	word = Normalize(word)
	if word == "" {
		return Placeholder
	}

	if c.cache != nil {
		if meaning, ok, err := c.cache.Get(ctx, word); err == nil && ok {
			return meaning
		} else if err != nil {
			c.logger.Warn().Err(err).Str("word", word).Msg("meaning cache read failed")
		}
	}

	meaning, err := c.fetch(ctx, word)
	if err != nil {
		c.logger.Debug().Err(err).Str("word", word).Msg("meaning lookup failed")
		return Placeholder
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, word, meaning); err != nil {
			c.logger.Warn().Err(err).Str("word", word).Msg("meaning cache write failed")
		}
	}
	return meaning
}

func (c *MeaningClient) fetch(ctx context.Context, word string) (string, error) {
	values := url.Values{}
	values.Set("ara", cases.Lower(language.Turkish).String(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("dictionary non-200: %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	// Misses come back as an object like {"error": "Sonuç bulunamadı"}.
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return "", fmt.Errorf("no entry for %s", word)
	}

	var entries []gtsEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "", err
	}
	for _, e := range entries {
		for _, m := range e.Meanings {
			if text := strings.TrimSpace(m.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("empty entry for %s", word)
}
