package obs

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "prod")
	logger.Info("login", "token", "abcdef123456", "user_id", 42)

	out := buf.String()
	if strings.Contains(out, "abcdef123456") {
		t.Fatalf("token leaked into log: %s", out)
	}
	if !strings.Contains(out, `"token":"****3456"`) {
		t.Fatalf("expected masked token, got %s", out)
	}
	if !strings.Contains(out, `"user_id":42`) {
		t.Fatalf("expected user_id kept, got %s", out)
	}
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no debug output outside dev, got %s", buf.String())
	}
	newLogger(&buf, "dev").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug output in dev, got %s", buf.String())
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":         "",
		"abc":      "****",
		"abcd":     "****",
		"abcdefgh": "****efgh",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q)=%q, want %q", in, got, want)
		}
	}
}
