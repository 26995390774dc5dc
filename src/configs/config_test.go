package configs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRPC_Verify(t *testing.T) {
	var rpc *RPC
	assert.NoError(t, rpc.verify())
	rpc = new(RPC)
	rpc.Bind = "foo@bar"
	assert.NoError(t, rpc.verify())
	rpc.Enable = true
	assert.Error(t, rpc.verify())
	rpc.Bind = "127.0.0.1:8175"
	assert.NoError(t, rpc.verify())
}

func TestConfig_Verify(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Verify())

	cfg = NewConfig()
	assert.NoError(t, cfg.Verify())

	cfg.Login.PollIntervalMs = 0
	assert.Error(t, cfg.Verify())
	cfg.Login.PollIntervalMs = 1500

	cfg.Signing.AppKey = ""
	assert.Error(t, cfg.Verify())
	cfg.Signing.AppKey = defaultConfig.Signing.AppKey

	cfg.AppDataPath = ""
	assert.Error(t, cfg.Verify())
	cfg.AppDataPath = os.TempDir()

	cfg.Log.OutPutFolder = "does-not-exist"
	assert.Error(t, cfg.Verify())
	cfg.Log.OutPutFolder = os.TempDir()
	assert.NoError(t, cfg.Verify())
}

func TestNewConfigWithBytes(t *testing.T) {
	raw := []byte(`
debug: true
app_data_path: /tmp/bililink
rpc:
  enable: true
  bind: "0.0.0.0:9000"
login:
  poll_interval_ms: 2000
`)
	cfg, err := NewConfigWithBytes(raw)
	assert.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/bililink", cfg.AppDataPath)
	assert.True(t, cfg.RPC.Enable)
	assert.Equal(t, "0.0.0.0:9000", cfg.RPC.Bind)
	assert.Equal(t, 2000, cfg.Login.PollIntervalMs)
	// untouched fields keep their defaults
	assert.Equal(t, defaultConfig.Signing.AppKey, cfg.Signing.AppKey)
	assert.Equal(t, 0, len(cfg.File))
}

func TestCurrentConfig(t *testing.T) {
	defer SetCurrentConfig(nil)
	assert.Nil(t, GetCurrentConfig())
	assert.False(t, IsDebug())

	cfg := NewConfig()
	cfg.Debug = true
	SetCurrentConfig(cfg)
	assert.Same(t, cfg, GetCurrentConfig())
	assert.True(t, IsDebug())
}
