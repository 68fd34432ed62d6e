package engine

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when a required API key is not configured.
var ErrMissingCredentials = errors.New("missing required credentials")

// Channel is a polled YouTube channel.
type Channel struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DefaultChannels is the built-in sweep list, used when no channels file is set.
var DefaultChannels = []Channel{
	{ID: "UCGq-a57w-aPwyi3pIPAg6Jg", Name: "Diary of a CEO"},
	{ID: "UC2D2CMWXMOVWx7giW1n3LIg", Name: "Huberman Lab"},
}

// Config holds all pipeline configuration, built once in main and passed down.
type Config struct {
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	LLMAPIKey             string
	LLMAPIKeyFallbacks    []string
	LLMAPIBase            string
	LLMModel              string
	LLMTemperature        float64
	LLMMaxTokens          int
	LLMRequestsPerMinute  int // 0 = unlimited

	Channels           []Channel
	Lookback           time.Duration
	DiscoveryPageSize  int
	MaxTranscriptChars int
	TipsPerVideo       int
	TranscriptLangs    []string

	TipsPath   string
	DataTSPath string
	StatePath  string
	LedgerPath string // empty = ledger disabled

	DatabaseURL        string // empty = Postgres mirror disabled
	RedisURL           string // empty = L2 transcript cache disabled
	TranscriptCacheTTL time.Duration

	// HoldCheckpointOnError keeps a channel's checkpoint in place when its
	// discovery call fails instead of advancing it.
	HoldCheckpointOnError bool

	// BrowserTLS scrapes watch pages through a Chrome-fingerprinted client.
	BrowserTLS bool

	HTTPClient *http.Client
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	c := &Config{
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		LLMAPIKey:             env.Str("LLM_API_KEY", env.Str("OPENAI_API_KEY", "")),
		LLMAPIKeyFallbacks:    env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:            env.Str("LLM_API_BASE", "https://api.openai.com/v1"),
		LLMModel:              env.Str("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature:        env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:          env.Int("LLM_MAX_TOKENS", 2048),
		LLMRequestsPerMinute:  env.Int("LLM_RPM", 0),
		Lookback:              env.Duration("LOOKBACK", 24*time.Hour),
		DiscoveryPageSize:     env.Int("DISCOVERY_PAGE_SIZE", 5),
		MaxTranscriptChars:    env.Int("MAX_TRANSCRIPT_CHARS", 80_000),
		TipsPerVideo:          env.Int("TIPS_PER_VIDEO", 3),
		TranscriptLangs:       env.List("TRANSCRIPT_LANGS", "en,en-US,en-GB"),
		TipsPath:              env.Str("TIPS_PATH", "data/tips.json"),
		DataTSPath:            env.Str("DATA_TS_PATH", "lib/data.ts"),
		StatePath:             env.Str("STATE_PATH", ".last_checked.json"),
		LedgerPath:            env.Str("LEDGER_PATH", ".go_tips/ledger.db"),
		DatabaseURL:           env.Str("DATABASE_URL", ""),
		RedisURL:              env.Str("REDIS_URL", ""),
		TranscriptCacheTTL:    env.Duration("TRANSCRIPT_CACHE_TTL", 72*time.Hour),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	c.HoldCheckpointOnError, _ = strconv.ParseBool(env.Str("HOLD_CHECKPOINT_ON_ERROR", "false"))
	c.BrowserTLS, _ = strconv.ParseBool(env.Str("BROWSER_TLS", "false"))

	c.Channels = DefaultChannels
	if path := env.Str("CHANNELS_FILE", ""); path != "" {
		chans, err := LoadChannels(path)
		if err != nil {
			return nil, err
		}
		c.Channels = chans
	}
	return c, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.YouTubeAPIKey == "" {
		missing = append(missing, "YOUTUBE_API_KEY")
	}
	if c.LLMAPIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not set", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if c.MaxTranscriptChars <= 0 || c.TipsPerVideo <= 0 || c.DiscoveryPageSize <= 0 {
		return errors.New("MAX_TRANSCRIPT_CHARS, TIPS_PER_VIDEO and DISCOVERY_PAGE_SIZE must be positive")
	}
	return nil
}

type channelsFile struct {
	Channels []Channel `yaml:"channels"`
}

// LoadChannels reads an ordered channel list from a YAML file.
func LoadChannels(path string) ([]Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}
	var f channelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channels file %s: %w", path, err)
	}
	if len(f.Channels) == 0 {
		return nil, fmt.Errorf("channels file %s: no channels", path)
	}
	seen := make(map[string]bool, len(f.Channels))
	for i, ch := range f.Channels {
		if ch.ID == "" {
			return nil, fmt.Errorf("channels file %s: entry %d has no id", path, i)
		}
		if seen[ch.ID] {
			return nil, fmt.Errorf("channels file %s: duplicate id %s", path, ch.ID)
		}
		seen[ch.ID] = true
		if ch.Name == "" {
			f.Channels[i].Name = ch.ID
		}
	}
	return f.Channels, nil
}
