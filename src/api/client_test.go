package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bililink-go/bililink-go/src/configs"
	"github.com/bililink-go/bililink-go/src/credentials"
	"github.com/bililink-go/bililink-go/src/pkg/metadata"
)

const (
	testNavBody = `{"code":0,"message":"0","data":{"isLogin":true,"mid":42,"uname":"streamer",` +
		`"face":"https://example.com/face.jpg","money":12.5,"level_info":{"current_level":5},` +
		`"wbi_img":{"img_url":"https://example.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png",` +
		`"sub_url":"https://example.com/bfs/wbi/4932caff0ff746eab6f01bf08b70ac45.png"}}}`
	testNavStatBody = `{"code":0,"message":"0","data":{"following":10,"follower":20,"dynamic_count":3}}`
	testRoomIDBody  = `{"code":0,"message":"ok","data":{"room_id":98765}}`
	testNavInvalid  = `{"code":-101,"message":"账号未登录","data":{"isLogin":false}}`
)

// fakeUpstream 用一个 httptest 服务同时扮演 passport、api 和 live 三个域名
type fakeUpstream struct {
	mux *http.ServeMux

	mu   sync.Mutex
	hits map[string]int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{mux: http.NewServeMux(), hits: make(map[string]int)}
}

func (f *fakeUpstream) handle(path string, handler func(w http.ResponseWriter, r *http.Request, hit int)) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[path]++
		hit := f.hits[path]
		f.mu.Unlock()
		handler(w, r, hit)
	})
}

// reply 注册一个固定 JSON 响应
func (f *fakeUpstream) reply(path, body string) {
	f.handle(path, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, body)
	})
}

func (f *fakeUpstream) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// withLoggedInEndpoints 注册登录态校验需要的三个接口
func (f *fakeUpstream) withLoggedInEndpoints() {
	f.reply(navPath, testNavBody)
	f.reply(navStatPath, testNavStatBody)
	f.reply(roomIDByUIDPath, testRoomIDBody)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func newTestClient(t *testing.T, upstream *fakeUpstream, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(upstream.mux)
	t.Cleanup(srv.Close)

	configs.SetCurrentConfig(configs.NewConfig())
	opts = append([]Option{
		WithHosts(Hosts{Passport: srv.URL, API: srv.URL, Live: srv.URL}),
		WithPollInterval(5 * time.Millisecond),
	}, opts...)
	return NewClient(nil, opts...)
}

func newTestCredentialStore(t *testing.T) *credentials.Store {
	t.Helper()
	meta, err := metadata.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.CloseStore() })
	return credentials.NewStore(credentials.NewMemoryBackend(), meta)
}

// loginManually 走手动登录把客户端带到已登录状态
func loginManually(t *testing.T, c *Client) {
	t.Helper()
	require.NoError(t, c.ManualLogin("98765", "SESSDATA=abc; bili_jct=deadbeef", "deadbeef"))
}
