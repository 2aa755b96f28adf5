package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(userID, "Amina Otieno", "test-secret", time.Hour)
	require.NoError(t, err)

	actor, err := ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.Equal(t, "Amina Otieno", actor.Name)
}

func TestValidateTokenRejects(t *testing.T) {
	userID := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(userID, "x", "secret-a", time.Hour)
		require.NoError(t, err)
		_, err = ValidateToken(token, "secret-b")
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(userID, "x", "secret", -time.Minute)
		require.NoError(t, err)
		_, err = ValidateToken(token, "secret")
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ValidateToken("not.a.token", "secret")
		require.Error(t, err)
	})
}

func TestActorLabel(t *testing.T) {
	assert.Equal(t, "system", ActorLabel(context.Background()))

	id := uuid.New()
	ctx := ContextWithActor(context.Background(), Actor{UserID: id, Name: "Amina"})
	assert.Equal(t, "Amina ("+id.String()+")", ActorLabel(ctx))

	anonymous := ContextWithActor(context.Background(), Actor{UserID: id})
	assert.Equal(t, id.String(), ActorLabel(anonymous))
}
