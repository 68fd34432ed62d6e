package engine

import stealth "github.com/anatolykoptev/go-stealth"

// User-Agent strings used by the YouTube collaborators.
const (
	UserAgentBot = "GoTips/1.0"
)

// ChromeHeaders returns common Chrome browser headers with a rotated User-Agent.
func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }

// RandomUserAgent returns a realistic browser User-Agent for page scraping.
func RandomUserAgent() string { return stealth.RandomUserAgent() }

// IsRetryableStatus reports whether an HTTP status is worth retrying.
func IsRetryableStatus(code int) bool { return stealth.IsRetryableStatus(code) }
