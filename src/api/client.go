// Package api 实现 B 站直播姬 Web 接口的客户端：
// 扫码/手动登录、会话恢复、用户与直播间信息、开播/下播流程和弹幕发送。
// 所有会话状态由 Client 显式持有，不依赖 cookie jar。
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/bililink-go/bililink-go/src/configs"
	"github.com/bililink-go/bililink-go/src/credentials"
	"github.com/bililink-go/bililink-go/src/log"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"

const (
	qrGeneratePath  = "/x/passport-login/web/qrcode/generate"
	qrPollPath      = "/x/passport-login/web/qrcode/poll"
	navPath         = "/x/web-interface/nav"
	navStatPath     = "/x/web-interface/nav/stat"
	clickNowPath    = "/x/report/click/now"
	roomIDByUIDPath = "/room/v2/Room/room_id_by_uid"
	roomInfoPath    = "/room/v1/Room/get_info"
	areaListPath    = "/room/v1/Area/getList"
	roomUpdatePath  = "/room/v1/Room/update"
	startLivePath   = "/room/v1/Room/startLive"
	stopLivePath    = "/room/v1/Room/stopLive"
	liveVersionPath = "/xlive/app-blink/v1/liveVersionInfo/getHomePageLiveVersion"
	msgSendPath     = "/msg/send"
)

// Hosts 三个接口域名，测试时可整体替换为 httptest 服务地址
type Hosts struct {
	Passport string
	API      string
	Live     string
}

func defaultHosts() Hosts {
	return Hosts{
		Passport: "https://passport.bilibili.com",
		API:      "https://api.bilibili.com",
		Live:     "https://api.live.bilibili.com",
	}
}

// liveHeaders 直播姬 Web 端的请求头，开播相关接口校验其中部分字段
func liveHeaders() map[string]string {
	return map[string]string{
		"accept":             "application/json, text/javascript, */*; q=0.01",
		"accept-language":    "zh-CN,zh;q=0.9,en;q=0.8",
		"content-type":       "application/x-www-form-urlencoded; charset=UTF-8",
		"origin":             "https://link.bilibili.com",
		"referer":            "https://link.bilibili.com/p/center/index",
		"sec-ch-ua":          `" Not A;Brand";v="99", "Chromium";v="96", "Google Chrome";v="96"`,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"Linux"`,
		"sec-fetch-dest":     "empty",
		"sec-fetch-mode":     "cors",
		"sec-fetch-site":     "same-site",
		"user-agent":         userAgent,
	}
}

// Client 持有一个账号的完整会话状态。
// 所有修改状态的操作串行执行（整个操作持有 mu），
// 读侧通过 Snapshot/Subscribe 获取一致的状态快照。
type Client struct {
	mu   sync.Mutex
	exec *executor

	store  *credentials.Store
	logger *logrus.Entry

	hosts        Hosts
	appKey       string
	appSec       string
	pollInterval time.Duration

	loggedIn              bool
	profile               *Profile
	roomID                string
	csrfToken             string
	cookies               []Cookie
	roomInfo              *RoomInfo
	initialRoomInfoLoaded bool
	partitions            []Partition
	liveActive            bool
	currentStream         *StreamTarget

	subMu       sync.Mutex
	subscribers map[chan Snapshot]struct{}
}

// Option 构造 Client 时的可选配置
type Option func(*Client)

// WithHosts 覆盖接口域名（测试用）
func WithHosts(hosts Hosts) Option {
	return func(c *Client) { c.hosts = hosts }
}

// WithHTTPClient 覆盖底层 HTTP 客户端
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.exec = newExecutor(client) }
}

// WithAppCredentials 覆盖 appkey 签名所用的 key/secret
func WithAppCredentials(key, secret string) Option {
	return func(c *Client) {
		c.appKey = key
		c.appSec = secret
	}
}

// WithPollInterval 覆盖扫码轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// NewClient 创建客户端。store 可以为 nil，此时凭证不做持久化。
func NewClient(store *credentials.Store, opts ...Option) *Client {
	cfg := configs.GetCurrentConfig()
	if cfg == nil {
		cfg = configs.NewConfig()
	}
	c := &Client{
		exec:         newExecutor(nil),
		store:        store,
		logger:       log.GetLogger().WithField("module", "api"),
		hosts:        defaultHosts(),
		appKey:       cfg.Signing.AppKey,
		appSec:       cfg.Signing.AppSecret,
		pollInterval: time.Duration(cfg.Login.PollIntervalMs) * time.Millisecond,
		subscribers:  make(map[chan Snapshot]struct{}),
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 1500 * time.Millisecond
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// codeAndMessage 从响应中取业务 code 和 message
func codeAndMessage(result gjson.Result) (int64, string) {
	return result.Get("code").Int(), result.Get("message").String()
}

// requireSessionLocked 校验已登录且 csrf 可用，开播、下播、
// 改标题、发弹幕等写操作的共同前置条件
func (c *Client) requireSessionLocked() error {
	if !c.loggedIn || c.roomID == "" || c.csrfToken == "" {
		return ErrAuthenticationRequired
	}
	return nil
}
