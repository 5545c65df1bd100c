package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/counseling-api/pkg/config"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "counseling:auth:revoked:u-1", Key("auth", "revoked", "u-1"))
}

func TestNewRedisDisabled(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, client)
}
