package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner mints and verifies self-contained download tokens.
// A token is "<jobID>.<unix expiry>.<base64 path>.<hmac>"; possession of a
// valid token is the only authorization a download needs.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner builds a signer. A non-positive ttl defaults to 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate signs a token for the job and stored file path.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, errors.New("job id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret is empty")
	}

	expiresAt := time.Now().Add(s.ttl)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	sig := s.sign(jobID, ts, encoded)

	return strings.Join([]string{jobID, ts, encoded, sig}, "."), expiresAt, nil
}

// Parse verifies a token's signature and expiry and returns its contents.
// allowExpired skips the expiry check so cleanup code can still resolve
// paths from stale tokens.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, errors.New("malformed token")
	}
	jobID, ts, encoded, sig := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(jobID, ts, encoded)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", "", time.Time{}, errors.New("token signature mismatch")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, errors.New("malformed token timestamp")
	}
	expiresAt = time.Unix(unix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, errors.New("token expired")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode token path: %w", err)
	}
	return jobID, string(raw), expiresAt, nil
}

func (s *SignedURLSigner) sign(jobID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", jobID, ts, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
