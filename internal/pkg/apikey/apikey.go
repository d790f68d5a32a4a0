// Package apikey derives identifiers and signing material from LightPay API keys.
//
// An API key has the shape {prefix}_{live|test}_{32 alphanumerics}{secret}.
// The first 40 characters form the key ID used to address processor-side
// configuration; the remaining characters are the secret whose SHA-256 digest
// keys webhook signatures.
package apikey

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
)

// KeyIDLength is the fixed width of the key ID prefix.
const KeyIDLength = 40

// SignaturePrefix precedes the hex HMAC in signature headers.
const SignaturePrefix = "sha256="

var keyIDPattern = regexp.MustCompile(`^(pk_(?:live|test)_[a-zA-Z0-9]{32})`)

// KeyID returns the 40-character key identifier of apiKey.
func KeyID(apiKey string) (string, bool) {
	m := keyIDPattern.FindStringSubmatch(apiKey)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SigningKey returns SHA-256 of the key secret as raw bytes.
func SigningKey(apiKey string) ([]byte, error) {
	if len(apiKey) < KeyIDLength {
		return nil, domainErrors.ErrInvalidAPIKey
	}
	sum := sha256.Sum256([]byte(apiKey[KeyIDLength:]))
	return sum[:], nil
}

// Sign computes the signature header value for body under apiKey.
func Sign(body []byte, apiKey string) (string, error) {
	key, err := SigningKey(apiKey)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil)), nil
}
