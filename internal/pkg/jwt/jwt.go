package jwt

import (
	"crypto/rsa"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

type JSONWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewJSONWebToken parses the PEM-encoded RSA key pair. A missing
// private key is tolerated so verify-only deployments can run without
// signing capability.
func NewJSONWebToken(privateKeyPEM, publicKeyPEM []byte) *JSONWebToken {
	j := &JSONWebToken{}

	if len(privateKeyPEM) > 0 {
		if pk, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM); err == nil {
			j.privateKey = pk
		}
	}
	if len(publicKeyPEM) > 0 {
		if pub, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM); err == nil {
			j.publicKey = pub
		}
	}

	return j
}

func (j *JSONWebToken) Sign(subject, sessionID string, expiresAt time.Time) (string, error) {
	if j.privateKey == nil {
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "signing key is not configured")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(j.privateKey)
}

func (j *JSONWebToken) Parse(tokenString string) (Claims, error) {
	claims := Claims{}

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return j.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil || !token.Valid {
		return Claims{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid token")
	}

	return claims, nil
}
