package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/autopeer-io/otahub/pkg/options"
)

func TestStaticToken(t *testing.T) {
	a := NewStaticToken("SECRET_OTA_TOKEN")
	ctx := context.Background()

	assert.NoError(t, a.VerifyCredential(ctx, "SECRET_OTA_TOKEN"))
	assert.ErrorIs(t, a.VerifyCredential(ctx, ""), ErrUnauthorized)
	assert.ErrorIs(t, a.VerifyCredential(ctx, "SECRET_OTA_TOKE"), ErrUnauthorized)
	assert.ErrorIs(t, a.VerifyCredential(ctx, "secret_ota_token"), ErrUnauthorized)
}

func TestStaticTokenEmptyNeverMatches(t *testing.T) {
	assert.ErrorIs(t, NewStaticToken("").VerifyCredential(context.Background(), ""), ErrUnauthorized)
}

func TestHashedToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	a, err := NewHashedToken(string(hash))
	require.NoError(t, err)

	assert.NoError(t, a.VerifyCredential(context.Background(), "s3cret"))
	assert.ErrorIs(t, a.VerifyCredential(context.Background(), "nope"), ErrUnauthorized)

	_, err = NewHashedToken("not-a-hash")
	assert.Error(t, err)
}

func TestNewFromOptions(t *testing.T) {
	opts := options.NewAuthOptions()
	_, err := New(opts)
	assert.Error(t, err)

	opts.APIToken = "tok"
	a, err := New(opts)
	require.NoError(t, err)
	assert.IsType(t, &StaticToken{}, a)
}
