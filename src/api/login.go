package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bililink-go/bililink-go/src/credentials"
)

// qrSubCode 轮询接口 data.code 的取值
const (
	qrSubCodeSuccess = 0
	qrSubCodeExpired = 86038
	qrSubCodeScanned = 86090
)

// InitiateQRLogin 请求一张新的登录二维码。
// 任何残留的登录态会先被清掉，一次只允许一个进行中的登录。
func (c *Client) InitiateQRLogin() (*QRLoginTicket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearSessionLocked()
	c.publishLocked()

	result, _, err := c.exec.do(apiRequest{
		op:      "qr_generate",
		method:  http.MethodGet,
		url:     c.hosts.Passport + qrGeneratePath,
		headers: map[string]string{"user-agent": userAgent},
	})
	if err != nil {
		return nil, err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return nil, newAPIError(code, msg)
	}
	ticket := &QRLoginTicket{
		URL: result.Get("data.url").String(),
		Key: result.Get("data.qrcode_key").String(),
	}
	if ticket.URL == "" || ticket.Key == "" {
		return nil, fmt.Errorf("%w: qr_generate: missing url or key", ErrInvalidResponse)
	}
	return ticket, nil
}

// PollQRLogin 查询二维码当前状态。返回 true 表示登录完成；
// 已扫描未确认返回 ErrQRCodeScanned，过期返回 ErrQRCodeExpired，
// 尚未扫描返回 (false, nil)。
func (c *Client) PollQRLogin(ticket *QRLoginTicket) (bool, error) {
	if ticket == nil || ticket.Key == "" {
		return false, fmt.Errorf("%w: empty qr ticket", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, resp, err := c.exec.do(apiRequest{
		op:      "qr_poll",
		method:  http.MethodGet,
		url:     c.hosts.Passport + qrPollPath + "?qrcode_key=" + url.QueryEscape(ticket.Key),
		headers: map[string]string{"user-agent": userAgent},
	})
	if err != nil {
		return false, err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return false, newAPIError(code, msg)
	}

	switch result.Get("data.code").Int() {
	case qrSubCodeSuccess:
		if err := c.captureSessionLocked(cookiesFromResponse(resp)); err != nil {
			return false, err
		}
		return true, nil
	case qrSubCodeExpired:
		return false, ErrQRCodeExpired
	case qrSubCodeScanned:
		return false, ErrQRCodeScanned
	default:
		// 还没扫，继续等
		return false, nil
	}
}

// captureSessionLocked 用登录下发的 cookie 建立会话。
// 拉取用户信息确认 cookie 有效后才算登录成功，无效则整体回滚。
func (c *Client) captureSessionLocked(cookies []Cookie) error {
	if len(cookies) == 0 {
		return fmt.Errorf("%w: qr_poll: no session cookies issued", ErrInvalidResponse)
	}
	c.cookies = cookies
	c.csrfToken = cookieValue(cookies, "bili_jct")

	if err := c.fetchProfileLocked(); err != nil {
		if errors.Is(err, ErrAuthenticationRequired) {
			c.clearSessionLocked()
			c.publishLocked()
			return err
		}
		// cookie 已拿到，用户信息拉取失败不回滚，留给后续刷新
		c.logger.WithError(err).Warn("登录成功但获取用户信息失败")
		c.loggedIn = true
	}
	if err := c.persistLocked(); err != nil {
		c.logger.WithError(err).Warn("登录凭证持久化失败")
	}
	c.publishLocked()
	return nil
}

// ManualLogin 使用手工粘贴的 cookie 串和 csrf 登录。
// 三个参数都必须非空，手填的房间号覆盖自动解析的结果。
func (c *Client) ManualLogin(roomID, cookieString, csrf string) error {
	cookieString = strings.TrimSpace(cookieString)
	csrf = strings.TrimSpace(csrf)
	roomID = strings.TrimSpace(roomID)
	if roomID == "" || cookieString == "" || csrf == "" {
		return fmt.Errorf("%w: room id, cookie string and csrf are required", ErrInvalidInput)
	}
	cookies := parseCookieString(cookieString)
	if len(cookies) == 0 {
		return fmt.Errorf("%w: no valid cookies in input", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearSessionLocked()
	c.cookies = cookies
	c.csrfToken = csrf
	// 手填房间号优先，不再按 uid 解析
	c.roomID = roomID

	if err := c.fetchProfileLocked(); err != nil {
		c.clearSessionLocked()
		c.publishLocked()
		return err
	}
	if err := c.persistLocked(); err != nil {
		c.publishLocked()
		return err
	}
	c.publishLocked()
	return nil
}

// RestoreSession 尝试用本地保存的凭证恢复登录。
// 没有保存的凭证时直接返回 nil；凭证已失效时清除本地存储并返回
// ErrAuthenticationRequired；网络等瞬时失败保留凭证，下次可重试。
func (c *Client) RestoreSession() error {
	if c.store == nil {
		return nil
	}
	creds := c.store.Load()
	if creds == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cookies = parseCookieString(creds.Cookies)
	c.csrfToken = creds.CSRF
	c.roomID = creds.RoomID

	if err := c.fetchProfileLocked(); err != nil {
		if errors.Is(err, ErrAuthenticationRequired) {
			c.clearSessionLocked()
			c.store.Delete()
			c.publishLocked()
			return err
		}
		// 瞬时失败，保留本地凭证
		c.loggedIn = false
		c.publishLocked()
		return err
	}
	if err := c.persistLocked(); err != nil {
		c.logger.WithError(err).Warn("刷新登录凭证失败")
	}
	c.publishLocked()
	return nil
}

// Logout 清空内存会话、丢弃底层连接会话并删除本地凭证
func (c *Client) Logout() {
	c.mu.Lock()
	c.clearSessionLocked()
	c.exec.reset()
	c.publishLocked()
	c.mu.Unlock()

	if c.store != nil {
		c.store.Delete()
	}
}

// clearSessionLocked 重置全部会话状态，回到未登录
func (c *Client) clearSessionLocked() {
	c.loggedIn = false
	c.profile = nil
	c.roomID = ""
	c.csrfToken = ""
	c.cookies = nil
	c.roomInfo = nil
	c.initialRoomInfoLoaded = false
	c.liveActive = false
	c.currentStream = nil
}

// persistLocked 把当前会话写入凭证存储
func (c *Client) persistLocked() error {
	if c.store == nil {
		return nil
	}
	creds := &credentials.Credentials{
		RoomID:  c.roomID,
		Cookies: cookieHeader(c.cookies),
		CSRF:    c.csrfToken,
	}
	if c.profile != nil {
		creds.UserName = c.profile.Name
		creds.UserAvatar = c.profile.Avatar
		creds.UserID = fmt.Sprintf("%d", c.profile.Mid)
	}
	return c.store.Save(creds)
}
