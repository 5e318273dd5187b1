package bootstrap

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/decsa/utility-chat-platform/internal/config"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

func TestBuildRedisClientEmptyAddrReturnsNil(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: ""}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.New("error"), true))
}

func TestBuildRedisClientVerifyFailureReturnsNil(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.New("error"), true))
}

func TestBuildLLMClientNoKeysReturnsNil(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: "openai"}
	assert.Nil(t, BuildLLMClient(context.Background(), cfg, logging.New("error")))
}

func TestOpenDatabaseEmptyURLReturnsNil(t *testing.T) {
	db, err := OpenDatabase(context.Background(), "", logging.New("error"))
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestBuildRuntimeDegradesWithoutDatabases(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{
		RedisAddr: mr.Addr(),
		LogLevel:  "error",
	}

	rt, err := BuildRuntime(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	require.NotNil(t, rt.Engine)
	require.NotNil(t, rt.Store)
	assert.Nil(t, rt.Customers)
	assert.Nil(t, rt.Complaints)
	assert.Nil(t, rt.Invoices)

	// No collaborators wired: the engine still answers every turn.
	reply := rt.Engine.HandleTurn(context.Background(), "user-1", "hola")
	assert.NotEmpty(t, reply)
}
