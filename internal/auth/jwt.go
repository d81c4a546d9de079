// SPDX-License-Identifier: MIT

// Package auth implements the bearer tokens protecting the gowrstat API:
// HS256 JWTs carrying the pywrstat_web issuer and a unique jti, minted by
// the CLI and verified on every protected request.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Issuer is the iss claim every valid token carries.
const Issuer = "pywrstat_web"

// clockSkew tolerates drift between the minting and verifying host.
const clockSkew = 30 // seconds

// Error classifications for strict HTTP 401 mapping.
var (
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrInvalidAlg     = errors.New("invalid algorithm: must be HS256")
	ErrInvalidSig     = errors.New("invalid signature")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenNotActive = errors.New("token not yet active (nbf)")
	ErrMismatchIss    = errors.New("issuer mismatch")
	ErrMissingJTI     = errors.New("missing jti claim")
)

// Claims is the token payload. API keys are long-lived: Exp and Nbf are
// optional and only enforced when present.
type Claims struct {
	Iss string `json:"iss"`
	Jti string `json:"jti"`
	Iat int64  `json:"iat,omitempty"`
	Nbf int64  `json:"nbf,omitempty"`
	Exp int64  `json:"exp,omitempty"`
}

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// GenerateHS256 generates an HS256 JWT for the given claims.
func GenerateHS256(secret []byte, claims Claims) (string, error) {
	hJSON, err := json.Marshal(header{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	cJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(hJSON) + "." + base64.RawURLEncoding.EncodeToString(cJSON)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	signature := mac.Sum(nil)

	return payload + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// Verify checks token against secret and returns its claims.
func Verify(token string, secret []byte) (*Claims, error) {
	return VerifyAt(token, secret, time.Now().Unix())
}

// VerifyAt is like Verify with an explicit 'now'. Useful for
// deterministic testing and clock-drift simulation.
func VerifyAt(token string, secret []byte, now int64) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrTokenMalformed
	}

	// Signature first, so claim errors leak nothing about the payload.
	payload := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	expectedSig := mac.Sum(nil)

	actualSig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidSig
	}
	if !hmac.Equal(expectedSig, actualSig) {
		return nil, ErrInvalidSig
	}

	hJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrTokenMalformed
	}
	var hdr header
	if err := json.Unmarshal(hJSON, &hdr); err != nil {
		return nil, ErrTokenMalformed
	}
	// "alg=none" and downgrade attempts are rejected here.
	if hdr.Alg != "HS256" {
		return nil, ErrInvalidAlg
	}

	cJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrTokenMalformed
	}
	var claims Claims
	if err := json.Unmarshal(cJSON, &claims); err != nil {
		return nil, ErrTokenMalformed
	}

	if claims.Nbf != 0 && now < claims.Nbf-clockSkew {
		return nil, ErrTokenNotActive
	}
	if claims.Exp != 0 && now > claims.Exp+clockSkew {
		return nil, ErrTokenExpired
	}

	if claims.Iss != Issuer {
		return nil, ErrMismatchIss
	}
	if claims.Jti == "" {
		return nil, ErrMissingJTI
	}

	return &claims, nil
}

// ExtractBearer returns the bearer token from the Authorization header,
// or "" when the header is absent or not a bearer scheme.
func ExtractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}
