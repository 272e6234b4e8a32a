// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth verifies the single administrator's credentials and issues
// and checks the bearer tokens that guard the admin API. Credentials come
// from an explicit Config; nothing here reads the environment.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is how long an issued token stays valid.
	TokenTTL = 7 * 24 * time.Hour

	// RoleAdmin is the only role a token can carry.
	RoleAdmin = "admin"

	issuer = "QuillPress"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPRequired        = errors.New("one-time code required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTOTPDisabled       = errors.New("two-factor authentication is not configured")
)

// Config holds the administrator credentials.
type Config struct {
	Username     string
	PasswordHash string // bcrypt
	JWTSecret    string
	TOTPSecret   string // base32; empty disables the second factor
}

// Claims are the JWT claims carried by an admin token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator checks logins and tokens for the configured administrator.
type Authenticator struct {
	cfg Config
	now func() time.Time
}

// New returns an Authenticator for cfg.
func New(cfg Config) (*Authenticator, error) {
	switch {
	case cfg.Username == "":
		return nil, errors.New("auth: username is required")
	case cfg.PasswordHash == "":
		return nil, errors.New("auth: password hash is required")
	case cfg.JWTSecret == "":
		return nil, errors.New("auth: jwt secret is required")
	}
	if cfg.TOTPSecret != "" {
		if _, err := totp.GenerateCodeCustom(cfg.TOTPSecret, time.Now(), totpOpts()); err != nil {
			return nil, fmt.Errorf("auth: invalid totp secret: %w", err)
		}
	}
	return &Authenticator{cfg: cfg, now: time.Now}, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func totpOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// TOTPEnabled reports whether logins require a one-time code.
func (a *Authenticator) TOTPEnabled() bool {
	return a.cfg.TOTPSecret != ""
}

// Login checks username, password and, when configured, the one-time code,
// and returns a signed token. Every credential failure is reported as
// ErrInvalidCredentials except a missing code, which is ErrOTPRequired.
func (a *Authenticator) Login(username, password, code string) (string, *Claims, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.cfg.Username)) == 1
	// bcrypt runs even for an unknown username so both paths cost the same.
	passErr := bcrypt.CompareHashAndPassword([]byte(a.cfg.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		return "", nil, ErrInvalidCredentials
	}

	if a.TOTPEnabled() {
		if code == "" {
			return "", nil, ErrOTPRequired
		}
		ok, err := totp.ValidateCustom(code, a.cfg.TOTPSecret, a.now().UTC(), totpOpts())
		if err != nil || !ok {
			return "", nil, ErrInvalidCredentials
		}
	}

	return a.issue()
}

func (a *Authenticator) issue() (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		Username: a.cfg.Username,
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   a.cfg.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, claims, nil
}

// Verify checks a token's signature, algorithm, issuer and expiry and
// returns its claims.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(a.cfg.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case claims.Role != RoleAdmin || claims.Username != a.cfg.Username:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ProvisioningURL returns the otpauth URL for enrolling the TOTP secret in
// an authenticator app.
func (a *Authenticator) ProvisioningURL() (string, error) {
	if !a.TOTPEnabled() {
		return "", ErrTOTPDisabled
	}
	v := url.Values{}
	v.Set("secret", a.cfg.TOTPSecret)
	v.Set("issuer", issuer)
	v.Set("algorithm", otp.AlgorithmSHA1.String())
	v.Set("digits", otp.DigitsSix.String())
	v.Set("period", "30")

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + a.cfg.Username,
		RawQuery: v.Encode(),
	}
	key, err := otp.NewKeyFromURL(u.String())
	if err != nil {
		return "", fmt.Errorf("build otp key: %w", err)
	}
	return key.URL(), nil
}

// ProvisioningQR renders ProvisioningURL as a 256px PNG QR code.
func (a *Authenticator) ProvisioningQR() ([]byte, error) {
	u, err := a.ProvisioningURL()
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(u, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	return png, nil
}
