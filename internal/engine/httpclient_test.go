package engine

import (
	"strings"
	"testing"
)

func TestNewBrowserClient(t *testing.T) {
	bc, err := NewBrowserClient()
	if err != nil {
		t.Fatalf("NewBrowserClient() error = %v", err)
	}
	if bc == nil || bc.client == nil {
		t.Fatal("NewBrowserClient() returned an unusable client")
	}
}

func TestChromeHeaders(t *testing.T) {
	h := make(map[string]string)
	for k, v := range ChromeHeaders() {
		h[strings.ToLower(k)] = v
	}

	for _, key := range []string{"accept", "user-agent"} {
		if h[key] == "" {
			t.Errorf("ChromeHeaders() missing key %q", key)
		}
	}
	if ua := h["user-agent"]; len(ua) < 20 || strings.Contains(ua, UserAgentBot) {
		t.Errorf("unexpected user-agent %q", ua)
	}
}
