package badge

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DefaultMaxAge is how long an issued badge token stays valid. Tokens are
// regenerated per scan, so the window only needs to cover the walk from the
// employee's phone to the kiosk camera.
const DefaultMaxAge = 60 * time.Second

var (
	ErrMalformed    = errors.New("badge: malformed token")
	ErrBadSignature = errors.New("badge: signature mismatch")
	ErrExpired      = errors.New("badge: token expired")
)

// Clock supplies the current time. Injected so expiry logic is testable
// without real time passing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now.
func RealClock() Clock { return realClock{} }

// Credential is the signed payload embedded in a QR symbol. Field order is
// fixed: the JSON marshal of this struct is the canonical byte form the
// MAC is computed over.
type Credential struct {
	EmployeeID string `json:"employee_id"`
	IssuedAt   string `json:"issued_at"` // RFC 3339, UTC
}

// wireToken is the decoded textual token: the credential fields plus a
// lowercase-hex HMAC-SHA256 over the canonical credential bytes.
type wireToken struct {
	EmployeeID string `json:"employee_id"`
	IssuedAt   string `json:"issued_at"`
	Signature  string `json:"signature"`
}

// Codec issues and validates badge tokens. The secret is process-wide,
// loaded once at startup and shared read-only across concurrent
// validations; Codec itself holds no mutable state.
type Codec struct {
	secret []byte
	clock  Clock
	maxAge time.Duration
}

// Option configures Codec.
type Option func(*Codec)

// WithClock overrides the time source (used by tests and replays).
func WithClock(c Clock) Option {
	return func(cd *Codec) {
		if c != nil {
			cd.clock = c
		}
	}
}

// WithMaxAge overrides the validity window.
func WithMaxAge(d time.Duration) Option {
	return func(cd *Codec) {
		if d > 0 {
			cd.maxAge = d
		}
	}
}

// New constructs a Codec holding the signing secret. The secret must never
// be logged; Codec deliberately has no accessor for it.
func New(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("badge: secret is required")
	}
	c := &Codec{
		secret: secret,
		clock:  realClock{},
		maxAge: DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a credential for the employee and returns the URL-safe token
// text (base64url without padding, ready to embed in a QR symbol).
func (c *Codec) Issue(employeeID string) (string, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return "", errors.New("badge: employeeID is required")
	}
	cred := Credential{
		EmployeeID: employeeID,
		IssuedAt:   c.clock.Now().UTC().Format(time.RFC3339),
	}
	sig, err := c.sign(cred)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(wireToken{
		EmployeeID: cred.EmployeeID,
		IssuedAt:   cred.IssuedAt,
		Signature:  sig,
	})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Validate checks the token and returns the embedded employee id. The
// signature is verified in constant time before any semantic use of the
// payload; only then is the issuance age checked against the validity
// window (inclusive at exactly maxAge). This is the only trusted path for
// extracting an employee id from a token.
func (c *Codec) Validate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrMalformed
	}
	var wt wireToken
	if err := json.Unmarshal(raw, &wt); err != nil {
		return "", ErrMalformed
	}
	if wt.EmployeeID == "" || wt.IssuedAt == "" || wt.Signature == "" {
		return "", ErrMalformed
	}

	got, err := hex.DecodeString(wt.Signature)
	if err != nil {
		return "", ErrBadSignature
	}
	want := c.mac(Credential{EmployeeID: wt.EmployeeID, IssuedAt: wt.IssuedAt})
	if want == nil {
		return "", ErrMalformed
	}
	if !hmac.Equal(got, want) {
		return "", ErrBadSignature
	}

	issuedAt, err := time.Parse(time.RFC3339, wt.IssuedAt)
	if err != nil {
		return "", ErrMalformed
	}
	age := c.clock.Now().Sub(issuedAt)
	if age < 0 || age > c.maxAge {
		return "", ErrExpired
	}
	return wt.EmployeeID, nil
}

// MaxAge reports the configured validity window.
func (c *Codec) MaxAge() time.Duration { return c.maxAge }

func (c *Codec) sign(cred Credential) (string, error) {
	mac := c.mac(cred)
	if mac == nil {
		return "", errors.New("badge: canonical serialization failed")
	}
	return hex.EncodeToString(mac), nil
}

func (c *Codec) mac(cred Credential) []byte {
	canonical, err := json.Marshal(cred)
	if err != nil {
		return nil
	}
	h := hmac.New(sha256.New, c.secret)
	h.Write(canonical)
	return h.Sum(nil)
}
