package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/achievehub/achievehub/config"
	"github.com/achievehub/achievehub/models"
)

func TestMain(m *testing.M) {
	config.SetForTesting(config.AppConfig{
		JWTSecret: "test-secret",
		LogLevel:  "error",
	})
	if err := InitLogger(config.Get()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-123", "Jane", models.RoleStudent, time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "Jane", claims.Username)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestParseExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-123", "Jane", models.RoleStudent, -time.Minute)
	assert.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseGarbageToken(t *testing.T) {
	_, err := ParseToken("not.a.jwt")
	assert.Error(t, err)
}

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret")
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestSanitizeStripsScripts(t *testing.T) {
	out := Sanitize(`hello <script>alert("x")</script><b>world</b>`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "world")
}

func TestTokenBlacklist(t *testing.T) {
	token := "revoked-token"
	assert.False(t, IsTokenBlacklisted(token))

	BlacklistToken(token, time.Now().Add(time.Minute))
	assert.True(t, IsTokenBlacklisted(token))
}

func TestStateStoreConsumeOnce(t *testing.T) {
	SaveState("state-abc", time.Minute)
	assert.True(t, ConsumeState("state-abc"))
	assert.False(t, ConsumeState("state-abc"), "state is single use")
	assert.False(t, ConsumeState("never-saved"))
}
