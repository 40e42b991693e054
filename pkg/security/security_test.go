package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastArgon keeps the tests quick, the encoding is identical to production
func fastArgon() *ArgonHash {
	return &ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgonRoundTrip(t *testing.T) {
	a := fastArgon()

	hash, err := a.GenerateFromPassword("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "secret1")

	ok, err := a.VerifyPasswd("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonSaltsDiffer(t *testing.T) {
	a := fastArgon()

	h1, err := a.GenerateFromPassword("same")
	require.NoError(t, err)
	h2, err := a.GenerateFromPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonRejectsGarbage(t *testing.T) {
	a := fastArgon()

	for _, e := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$aaaa$bbbb", "$argon2id$v=19$nope$aaaa$bbbb"} {
		ok, err := a.VerifyPasswd("x", e)
		assert.False(t, ok, e)
		assert.Error(t, err, e)
	}
}

func TestArgonDecoyNeverPanics(t *testing.T) {
	a := fastArgon()
	a.VerifyDecoy("anything")
	a.VerifyDecoy("")
}

func TestTokenRoundTrip(t *testing.T) {
	iss := NewTokenIssuer("secret-a", time.Hour, "telemetry-api")

	tok, err := iss.Issue("user-a", "a@example.com")
	require.NoError(t, err)

	id, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-a", id.UserID)
	assert.Equal(t, "a@example.com", id.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, 5*time.Second)
}

func TestTokenNeverVerifiesAsAnotherUser(t *testing.T) {
	iss := NewTokenIssuer("secret-a", time.Hour, "telemetry-api")

	a, err := iss.Issue("user-a", "a@example.com")
	require.NoError(t, err)
	b, err := iss.Issue("user-b", "b@example.com")
	require.NoError(t, err)

	idA, err := iss.Verify(a)
	require.NoError(t, err)
	idB, err := iss.Verify(b)
	require.NoError(t, err)

	assert.Equal(t, "user-a", idA.UserID)
	assert.Equal(t, "user-b", idB.UserID)
}

func TestTokenRejections(t *testing.T) {
	iss := NewTokenIssuer("secret-a", time.Hour, "telemetry-api")

	good, err := iss.Issue("user-a", "a@example.com")
	require.NoError(t, err)

	forUserB, err := iss.Issue("user-b", "b@example.com")
	require.NoError(t, err)
	g, b := strings.Split(good, "."), strings.Split(forUserB, ".")
	spliced := g[0] + "." + b[1] + "." + g[2]

	otherSecret, err := NewTokenIssuer("secret-b", time.Hour, "telemetry-api").Issue("user-a", "a@example.com")
	require.NoError(t, err)

	expiredIss := NewTokenIssuer("secret-a", time.Hour, "telemetry-api")
	expiredIss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIss.Issue("user-a", "a@example.com")
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id": "user-a",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret-a"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-a",
	}).SignedString([]byte("secret-a"))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret-a"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "user-a",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name string
		tok  string
	}{
		{"wrong secret", otherSecret},
		{"expired", expired},
		{"wrong algorithm", hs512},
		{"no expiry", noExp},
		{"no user id", noUser},
		{"alg none", unsigned},
		{"malformed", "not.a.token"},
		{"empty", ""},
		{"payload swapped", spliced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := iss.Verify(tt.tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, id)
		})
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	_, err := NewTokenIssuer("s", time.Hour, "x").Issue("", "a@example.com")
	assert.Error(t, err)
}
