// Package auth holds the deploy credentials and request signing. An
// access key names the account and carries the ed25519 public key; the
// secret key carries the 32-byte seed. Every backend request is annotated
// with a signature over a timestamped message so the backend can verify
// freshness without a shared secret.
package auth

import (
	"crypto/ed25519"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	accessKeyPrefix = "ska_"
	secretKeyPrefix = "sks_"

	// EnvAccessKey and EnvSecretKey override the credentials file.
	EnvAccessKey = "SKIFF_ACCESS_KEY"
	EnvSecretKey = "SKIFF_SECRET_KEY"

	HeaderAccessKey = "x-skiff-access-key"
	HeaderTime      = "x-skiff-request-time"
	HeaderSignature = "x-skiff-request-signature"
)

// keyEncoding is RFC 4648 base32 without padding; keys are rendered
// lowercase and accepted case-insensitively.
var keyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Credentials is a verified access/secret key pair.
type Credentials struct {
	accessKey string
	private   ed25519.PrivateKey
}

// AccessKey returns the full ska_-prefixed access key.
func (c *Credentials) AccessKey() string {
	return c.accessKey
}

// Parse validates a key pair. The secret must derive the public key the
// access key carries; a mismatch means the two keys belong to different
// accounts.
func Parse(accessKey, secretKey string) (*Credentials, error) {
	pub, err := decodeKey(accessKey, accessKeyPrefix, "access")
	if err != nil {
		return nil, err
	}
	seed, err := decodeKey(secretKey, secretKeyPrefix, "secret")
	if err != nil {
		return nil, err
	}
	private := ed25519.NewKeyFromSeed(seed)
	derived := private.Public().(ed25519.PublicKey)
	if !derived.Equal(ed25519.PublicKey(pub)) {
		return nil, fmt.Errorf("access key does not match secret key")
	}
	return &Credentials{accessKey: accessKey, private: private}, nil
}

func decodeKey(key, prefix, kind string) ([]byte, error) {
	if !strings.HasPrefix(key, prefix) {
		return nil, fmt.Errorf("%s key must start with %q", kind, prefix)
	}
	raw, err := keyEncoding.DecodeString(strings.ToUpper(key[len(prefix):]))
	if err != nil {
		return nil, fmt.Errorf("%s key is not valid base32: %w", kind, err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("%s key must decode to %d bytes, got %d", kind, ed25519.SeedSize, len(raw))
	}
	return raw, nil
}

// Encode renders a raw 32-byte key in the prefixed lowercase form.
func encode(prefix string, raw []byte) string {
	return prefix + strings.ToLower(keyEncoding.EncodeToString(raw))
}

// Generate mints a fresh key pair, returning the credentials and the two
// rendered keys for the operator to store.
func Generate() (*Credentials, string, string, error) {
	pub, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, "", "", err
	}
	accessKey := encode(accessKeyPrefix, pub)
	secretKey := encode(secretKeyPrefix, private.Seed())
	return &Credentials{accessKey: accessKey, private: private}, accessKey, secretKey, nil
}

// credentialsFile is the on-disk shape of ~/.skiff/credentials.json.
type credentialsFile struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// DefaultPath returns ~/.skiff/credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".skiff", "credentials.json"), nil
}

// Load resolves credentials from the environment first, then from the
// given file path (empty means DefaultPath).
func Load(path string) (*Credentials, error) {
	access, secret := os.Getenv(EnvAccessKey), os.Getenv(EnvSecretKey)
	if access != "" || secret != "" {
		if access == "" || secret == "" {
			return nil, fmt.Errorf("%s and %s must be set together", EnvAccessKey, EnvSecretKey)
		}
		return Parse(access, secret)
	}

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	// #nosec G304 -- path is the operator's credentials file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no credentials: set %s/%s or create %s", EnvAccessKey, EnvSecretKey, path)
	}
	var f credentialsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Parse(f.AccessKey, f.SecretKey)
}

// Sign produces the timestamp and signature for one request. The signed
// message is "request:<unix-seconds>" so the backend can bound clock skew.
func (c *Credentials) Sign(now time.Time) (timestamp, signature string) {
	timestamp = strconv.FormatInt(now.Unix(), 10)
	sig := ed25519.Sign(c.private, []byte("request:"+timestamp))
	return timestamp, strings.ToLower(keyEncoding.EncodeToString(sig))
}

// Verify checks a signature produced by Sign, for tests and tooling.
func (c *Credentials) Verify(timestamp, signature string) bool {
	sig, err := keyEncoding.DecodeString(strings.ToUpper(signature))
	if err != nil {
		return false
	}
	pub := c.private.Public().(ed25519.PublicKey)
	return ed25519.Verify(pub, []byte("request:"+timestamp), sig)
}

// Annotate signs the request and sets the three auth headers.
func (c *Credentials) Annotate(req *http.Request, now time.Time) {
	timestamp, signature := c.Sign(now)
	req.Header.Set(HeaderAccessKey, c.accessKey)
	req.Header.Set(HeaderTime, timestamp)
	req.Header.Set(HeaderSignature, signature)
}
