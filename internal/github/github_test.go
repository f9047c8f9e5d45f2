package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gogithub "github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/devdeck/devdeck/internal/errors"
	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/pkg/tokencache"
)

func testKeyPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return data, key
}

func TestActivityFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}

	tests := []struct {
		name string
		last *time.Time
		want model.ActivityLabel
	}{
		{"no commit data", nil, model.ActivityUnknown},
		{"today", ago(2 * time.Hour), model.ActivityHot},
		{"two days", ago(48 * time.Hour), model.ActivityHot},
		{"five days", ago(5 * 24 * time.Hour), model.ActivityWarm},
		{"three weeks", ago(21 * 24 * time.Hour), model.ActivityCold},
		{"two months", ago(60 * 24 * time.Hour), model.ActivityFrozen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActivityFor(tt.last, now))
		})
	}
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := splitRepo("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", name)

	for _, bad := range []string{"", "acme", "acme/", "/widgets"} {
		_, _, err := splitRepo(bad)
		assert.Error(t, err, "ref %q", bad)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "fix parser", firstLine("fix parser\n\nlonger body"))
	assert.Equal(t, "one liner", firstLine("one liner"))
}

func TestWrapErr(t *testing.T) {
	assert.NoError(t, wrapErr(nil))

	ghErr := &gogithub.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusBadGateway},
		Message:  "upstream hiccup",
	}
	wrapped := wrapErr(ghErr)
	require.Error(t, wrapped)
	assert.True(t, derrors.IsRetryable(wrapped))

	notFound := &gogithub.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  "missing",
	}
	assert.False(t, derrors.IsRetryable(wrapErr(notFound)))
}

func TestGenerateJWT(t *testing.T) {
	pemData, key := testKeyPEM(t)
	c, err := NewAppClientFromKeyBytes(12345, 678, pemData, tokencache.NewMemory(), zerolog.Nop())
	require.NoError(t, err)

	signed, err := c.generateJWT()
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	assert.Equal(t, "12345", claims.Issuer)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestInstallationToken_CacheHit(t *testing.T) {
	pemData, _ := testKeyPEM(t)
	cache := tokencache.NewMemory()
	c, err := NewAppClientFromKeyBytes(12345, 678, pemData, cache, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, installationTokenKey, tokencache.Token{
		Value:     "ghs_cached",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	// Fresh cached token short-circuits; no network involved.
	tok, err := c.installationToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghs_cached", tok)
}
