package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTokenMalformed is returned for tokens that do not decode.
	ErrTokenMalformed = errors.New("download token malformed")
	// ErrTokenSignature is returned when the signature does not match.
	ErrTokenSignature = errors.New("download token signature mismatch")
	// ErrTokenExpired is returned once the token's expiry has passed.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadClaims identify one stored report file.
type DownloadClaims struct {
	ReportID  string `json:"rid"`
	Scope     string `json:"scp"`
	Path      string `json:"p"`
	ExpiresAt int64  `json:"exp"`
}

// Expiry returns ExpiresAt as a time.
func (c DownloadClaims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// base64(claims).base64(mac).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A zero ttl means one day.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign stamps claims with the signer's expiry and returns the token.
func (s *SignedURLSigner) Sign(claims DownloadClaims) (string, time.Time, error) {
	if claims.ReportID == "" || claims.Path == "" {
		return "", time.Time{}, fmt.Errorf("sign download token: report id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("sign download token: secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	claims.ExpiresAt = expiresAt.Unix()
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + s.mac(body), expiresAt, nil
}

// Verify checks the signature and expiry and returns the claims.
func (s *SignedURLSigner) Verify(token string) (DownloadClaims, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return DownloadClaims{}, ErrTokenMalformed
	}
	if !hmac.Equal([]byte(sig), []byte(s.mac(body))) {
		return DownloadClaims{}, ErrTokenSignature
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return DownloadClaims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	var claims DownloadClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return DownloadClaims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !s.now().Before(claims.Expiry()) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) mac(body string) string {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(m.Sum(nil))
}
