package auth

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateParseRoundTrip(t *testing.T) {
	_, accessKey, secretKey, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !strings.HasPrefix(accessKey, "ska_") || !strings.HasPrefix(secretKey, "sks_") {
		t.Fatalf("key prefixes: %s / %s", accessKey, secretKey)
	}

	creds, err := Parse(accessKey, secretKey)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if creds.AccessKey() != accessKey {
		t.Errorf("AccessKey() = %s, want %s", creds.AccessKey(), accessKey)
	}
}

func TestParseRejectsMismatchedPair(t *testing.T) {
	_, accessKey, _, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	_, _, otherSecret, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(accessKey, otherSecret); err == nil {
		t.Errorf("Parse() accepted keys from different accounts")
	}
}

func TestParseRejectsMalformedKeys(t *testing.T) {
	_, accessKey, secretKey, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name           string
		access, secret string
	}{
		{"missing access prefix", strings.TrimPrefix(accessKey, "ska_"), secretKey},
		{"missing secret prefix", accessKey, strings.TrimPrefix(secretKey, "sks_")},
		{"not base32", "ska_!!!!", secretKey},
		{"truncated", accessKey, "sks_mfrgg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.access, tt.secret); err == nil {
				t.Errorf("Parse(%q, %q) succeeded", tt.access, tt.secret)
			}
		})
	}
}

func TestSignVerify(t *testing.T) {
	creds, _, _, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1750000000, 0)
	timestamp, signature := creds.Sign(now)
	if timestamp != "1750000000" {
		t.Errorf("timestamp = %s", timestamp)
	}
	if !creds.Verify(timestamp, signature) {
		t.Errorf("signature does not verify")
	}
	if creds.Verify("1750000001", signature) {
		t.Errorf("signature verified against a different timestamp")
	}
}

func TestAnnotateSetsHeaders(t *testing.T) {
	creds, accessKey, _, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, "https://example.test/graphql", nil)
	if err != nil {
		t.Fatal(err)
	}
	creds.Annotate(req, time.Unix(1750000000, 0))

	if got := req.Header.Get(HeaderAccessKey); got != accessKey {
		t.Errorf("%s = %s", HeaderAccessKey, got)
	}
	if got := req.Header.Get(HeaderTime); got != "1750000000" {
		t.Errorf("%s = %s", HeaderTime, got)
	}
	if sig := req.Header.Get(HeaderSignature); !creds.Verify("1750000000", sig) {
		t.Errorf("%s does not verify", HeaderSignature)
	}
}

func TestLoadFromEnvAndFile(t *testing.T) {
	_, accessKey, secretKey, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("env", func(t *testing.T) {
		t.Setenv(EnvAccessKey, accessKey)
		t.Setenv(EnvSecretKey, secretKey)
		if _, err := Load(""); err != nil {
			t.Errorf("Load() error: %v", err)
		}
	})

	t.Run("env half set", func(t *testing.T) {
		t.Setenv(EnvAccessKey, accessKey)
		t.Setenv(EnvSecretKey, "")
		if _, err := Load(""); err == nil {
			t.Errorf("Load() accepted a half-set environment")
		}
	})

	t.Run("file", func(t *testing.T) {
		t.Setenv(EnvAccessKey, "")
		t.Setenv(EnvSecretKey, "")
		path := filepath.Join(t.TempDir(), "credentials.json")
		data := `{"access_key": "` + accessKey + `", "secret_key": "` + secretKey + `"}`
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err != nil {
			t.Errorf("Load() error: %v", err)
		}
	})

	t.Run("file missing", func(t *testing.T) {
		t.Setenv(EnvAccessKey, "")
		t.Setenv(EnvSecretKey, "")
		if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Errorf("Load() succeeded with no credentials anywhere")
		}
	})
}
