package credentials

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bililink-go/bililink-go/src/pkg/metadata"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	meta, err := metadata.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.CloseStore() })
	return NewStore(NewMemoryBackend(), meta)
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	assert.Nil(t, store.Load())
	assert.False(t, store.HasSaved())
	assert.Nil(t, store.SavedAt())

	creds := &Credentials{
		RoomID:     "123456",
		Cookies:    "SESSDATA=abc; bili_jct=deadbeef",
		CSRF:       "deadbeef",
		UserName:   "streamer",
		UserAvatar: "https://example.com/face.jpg",
		UserID:     "42",
	}
	require.NoError(t, store.Save(creds))

	loaded := store.Load()
	require.NotNil(t, loaded)
	assert.Equal(t, "123456", loaded.RoomID)
	assert.Equal(t, "SESSDATA=abc; bili_jct=deadbeef", loaded.Cookies)
	assert.Equal(t, "deadbeef", loaded.CSRF)
	assert.Equal(t, "streamer", loaded.UserName)
	assert.Equal(t, "42", loaded.UserID)
	assert.False(t, loaded.SavedAt.IsZero())
	assert.True(t, store.HasSaved())
	require.NotNil(t, store.SavedAt())
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	first := &Credentials{RoomID: "1", Cookies: "a=1", CSRF: "x", SavedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.Save(first))
	second := &Credentials{RoomID: "2", Cookies: "b=2", CSRF: "y"}
	require.NoError(t, store.Save(second))

	loaded := store.Load()
	require.NotNil(t, loaded)
	assert.Equal(t, "2", loaded.RoomID)
	assert.Equal(t, "b=2", loaded.Cookies)
	assert.Equal(t, "y", loaded.CSRF)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Credentials{RoomID: "1", Cookies: "a=1", CSRF: "x"}))
	store.Delete()
	assert.Nil(t, store.Load())
	assert.False(t, store.HasSaved())

	// 再删一次不应出错
	store.Delete()
	assert.Nil(t, store.Load())
}

func TestStore_LoadWithoutPlainPartition(t *testing.T) {
	store := newTestStore(t)

	// 只有敏感分区时按未登录处理
	require.NoError(t, store.secrets.Set(`{"cookies":"a=1","csrf":"x"}`))
	assert.Nil(t, store.Load())
}

func TestStore_LoadWithCorruptSecret(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.secrets.Set("not-json"))
	assert.Nil(t, store.Load())
}
