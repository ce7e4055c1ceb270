package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner issues tamper-proof download tokens binding a subject
// (for example a registration number) to a resource name.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token for subject and resource valid for the signer TTL.
func (s *SignedURLSigner) Generate(subject, resource string) (string, time.Time, error) {
	if subject == "" || resource == "" {
		return "", time.Time{}, fmt.Errorf("subject and resource required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encSubject := base64.RawURLEncoding.EncodeToString([]byte(subject))
	encResource := base64.RawURLEncoding.EncodeToString([]byte(resource))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := s.sign(encSubject, exp, encResource)
	return strings.Join([]string{encSubject, exp, encResource, sig}, "."), expiresAt, nil
}

// Parse validates a token and returns its subject and resource.
func (s *SignedURLSigner) Parse(token string) (subject, resource string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	if !hmac.Equal([]byte(s.sign(parts[0], parts[1], parts[2])), []byte(parts[3])) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	rawSubject, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode subject: %w", err)
	}
	rawResource, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode resource: %w", err)
	}
	return string(rawSubject), string(rawResource), expiresAt, nil
}

func (s *SignedURLSigner) sign(parts ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
