package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bililink-go/bililink-go/src/pkg/signing"
)

// startLiveFaceAuthCode 开播接口要求人脸认证时返回的业务 code
const startLiveFaceAuthCode = 60024

// StartBroadcast 执行完整的开播流程：
//  1. 取服务端时间戳
//  2. 用 appkey 签名查询直播姬版本号
//  3. 更新直播间标题
//  4. 带版本号和签名请求开播，取回推流地址
//
// 任何一步失败整个流程终止，直播状态保持不变。
// 远端要求人脸认证时返回 *VerificationRequiredError，其中带认证页 URL。
func (c *Client) StartBroadcast(title string, areaID int64) (*StreamTarget, error) {
	if title == "" || areaID <= 0 {
		return nil, fmt.Errorf("%w: title and area are required", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return nil, err
	}

	ts, err := c.fetchServerTimeLocked()
	if err != nil {
		return nil, err
	}
	build, version, err := c.fetchLiveVersionLocked(ts)
	if err != nil {
		return nil, err
	}
	if err := c.updateRoomLocked(map[string]string{
		"room_id":    c.roomID,
		"platform":   "pc_link",
		"title":      title,
		"csrf_token": c.csrfToken,
		"csrf":       c.csrfToken,
	}); err != nil {
		return nil, err
	}

	form := signing.AppSign(map[string]string{
		"room_id":       c.roomID,
		"platform":      "pc_link",
		"area_v2":       strconv.FormatInt(areaID, 10),
		"backup_stream": "0",
		"csrf_token":    c.csrfToken,
		"csrf":          c.csrfToken,
		"build":         build,
		"version":       version,
		"ts":            strconv.FormatInt(ts, 10),
	}, c.appKey, c.appSec)

	result, _, err := c.exec.do(apiRequest{
		op:      "start_live",
		method:  http.MethodPost,
		url:     c.hosts.Live + startLivePath,
		headers: liveHeaders(),
		cookies: c.cookies,
		form:    form,
	})
	if err != nil {
		return nil, err
	}
	code, msg := codeAndMessage(result)
	if code == startLiveFaceAuthCode {
		return nil, &VerificationRequiredError{URL: result.Get("data.qr").String()}
	}
	if code != 0 {
		return nil, newAPIError(code, msg)
	}

	target := &StreamTarget{
		Addr: result.Get("data.rtmp.addr").String(),
		Key:  result.Get("data.rtmp.code").String(),
	}
	if target.Addr == "" || target.Key == "" {
		return nil, fmt.Errorf("%w: start_live: missing rtmp address", ErrInvalidResponse)
	}

	c.currentStream = target
	c.liveActive = true
	c.publishLocked()

	t := *target
	return &t, nil
}

// StopBroadcast 关闭直播并清掉本地推流信息
func (c *Client) StopBroadcast() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return err
	}

	result, _, err := c.exec.do(apiRequest{
		op:      "stop_live",
		method:  http.MethodPost,
		url:     c.hosts.Live + stopLivePath,
		headers: liveHeaders(),
		cookies: c.cookies,
		form: map[string]string{
			"room_id":    c.roomID,
			"platform":   "pc_link",
			"csrf_token": c.csrfToken,
			"csrf":       c.csrfToken,
		},
	})
	if err != nil {
		return err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return newAPIError(code, msg)
	}

	c.currentStream = nil
	c.liveActive = false
	c.publishLocked()
	return nil
}

// fetchServerTimeLocked 开播流程用服务端时间戳，避免本地时钟偏差影响签名
func (c *Client) fetchServerTimeLocked() (int64, error) {
	result, _, err := c.exec.do(apiRequest{
		op:      "click_now",
		method:  http.MethodGet,
		url:     c.hosts.API + clickNowPath,
		headers: liveHeaders(),
		cookies: c.cookies,
	})
	if err != nil {
		return 0, err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return 0, newAPIError(code, msg)
	}
	ts := result.Get("data.now").Int()
	if ts <= 0 {
		return 0, fmt.Errorf("%w: click_now: missing timestamp", ErrInvalidResponse)
	}
	return ts, nil
}

// fetchLiveVersionLocked 查询直播姬当前的 build 号和版本号，开播接口校验两者
func (c *Client) fetchLiveVersionLocked(ts int64) (build, version string, err error) {
	params := signing.AppSign(map[string]string{
		"system_version": "2",
		"ts":             strconv.FormatInt(ts, 10),
	}, c.appKey, c.appSec)

	result, _, err := c.exec.do(apiRequest{
		op:      "live_version",
		method:  http.MethodGet,
		url:     c.hosts.Live + liveVersionPath + "?" + signing.SortedQuery(params),
		headers: liveHeaders(),
		cookies: c.cookies,
	})
	if err != nil {
		return "", "", err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return "", "", newAPIError(code, msg)
	}
	build = result.Get("data.build").String()
	version = result.Get("data.curr_version").String()
	if build == "" || version == "" {
		return "", "", fmt.Errorf("%w: live_version: missing version info", ErrInvalidResponse)
	}
	return build, version, nil
}
