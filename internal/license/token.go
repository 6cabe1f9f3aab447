package license

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

// TokenClaims is the payload of an offline license token.
type TokenClaims struct {
	Licensee string   `json:"licensee,omitempty"`
	Products []string `json:"products"`
	jwt.RegisteredClaims
}

// TokenVerifier validates a license token stored on disk.
type TokenVerifier struct {
	path      string
	publicKey ed25519.PublicKey
	logger    *slog.Logger
}

// NewTokenVerifier creates a verifier for the token file at path. A nil key
// makes every check Unknown.
func NewTokenVerifier(path string, publicKey ed25519.PublicKey, logger *slog.Logger) *TokenVerifier {
	return &TokenVerifier{
		path:      path,
		publicKey: publicKey,
		logger:    infrastructure.WithComponent(logger, "license.token"),
	}
}

// ParsePublicKey accepts a PEM encoded key or a base64 raw Ed25519 key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrNoPublicKey
	}

	if strings.HasPrefix(s, "-----BEGIN") {
		key, err := jwt.ParseEdPublicKeyFromPEM([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		edKey, ok := key.(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("unexpected public key type %T", key)
		}
		return edKey, nil
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key size %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// IsLicensed implements Verifier. A token that is present but invalid,
// expired or for other products is Unlicensed; a missing or unreadable file
// is Unknown.
func (v *TokenVerifier) IsLicensed(ctx context.Context, productCode string) Verdict {
	_, err := v.ClaimsFor(productCode)
	switch {
	case err == nil:
		return Licensed
	case errors.Is(err, ErrNoLicenseFile), errors.Is(err, ErrNoPublicKey):
		v.logger.DebugContext(ctx, "No offline license available",
			slog.String("reason", err.Error()))
		return Unknown
	case errors.Is(err, ErrLicenseUnreadable):
		v.logger.WarnContext(ctx, "Offline license could not be read, ignoring for now",
			slog.String("path", v.path),
			slog.String("error", err.Error()))
		return Unknown
	case errors.Is(err, ErrProductNotCovered):
		v.logger.InfoContext(ctx, "Offline license does not cover product",
			slog.String("product_code", productCode),
			slog.String("error", err.Error()))
		return Unlicensed
	default:
		v.logger.WarnContext(ctx, "Offline license rejected",
			slog.String("path", v.path),
			slog.String("error", err.Error()))
		return Unlicensed
	}
}

// ClaimsFor returns the token claims when they cover productCode, or
// ErrProductNotCovered.
func (v *TokenVerifier) ClaimsFor(productCode string) (*TokenClaims, error) {
	claims, err := v.Claims()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(claims.Products, productCode) {
		return nil, fmt.Errorf("%w: %s not in %v", ErrProductNotCovered, productCode, claims.Products)
	}
	return claims, nil
}

// Claims reads and validates the token file.
func (v *TokenVerifier) Claims() (*TokenClaims, error) {
	if v.publicKey == nil {
		return nil, ErrNoPublicKey
	}

	data, err := os.ReadFile(v.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoLicenseFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLicenseUnreadable, err)
	}

	claims := &TokenClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(string(data)), claims,
		func(*jwt.Token) (interface{}, error) { return v.publicKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid license token: %w", err)
	}
	return claims, nil
}

// RequestLicense implements Verifier. There is nobody to notify offline, so
// the prompt is logged.
func (v *TokenVerifier) RequestLicense(ctx context.Context, productCode, message string) {
	v.logger.WarnContext(ctx, message,
		slog.String("product_code", productCode),
		slog.String("license_file", v.path))
}
