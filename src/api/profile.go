package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// FetchProfile 拉取当前登录用户的信息并更新会话状态。
// 远端返回 -101 时视为会话失效，本地登录态被清除。
func (c *Client) FetchProfile() (*Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fetchProfileLocked(); err != nil {
		if errors.Is(err, ErrAuthenticationRequired) {
			c.publishLocked()
		}
		return nil, err
	}
	c.publishLocked()
	p := *c.profile
	return &p, nil
}

// fetchProfileLocked 是会话有效性的唯一判定点：
// nav 接口返回 -101 或 isLogin=false 即认为凭证已失效。
func (c *Client) fetchProfileLocked() error {
	if len(c.cookies) == 0 {
		return ErrAuthenticationRequired
	}

	result, _, err := c.exec.do(apiRequest{
		op:      "nav",
		method:  http.MethodGet,
		url:     c.hosts.API + navPath,
		headers: liveHeaders(),
		cookies: c.cookies,
	})
	if err != nil {
		return err
	}
	code, msg := codeAndMessage(result)
	if code == -101 || (code == 0 && !result.Get("data.isLogin").Bool()) {
		c.loggedIn = false
		c.profile = nil
		return ErrAuthenticationRequired
	}
	if code != 0 {
		return newAPIError(code, msg)
	}

	data := result.Get("data")
	profile := &Profile{
		Mid:    data.Get("mid").Int(),
		Name:   data.Get("uname").String(),
		Avatar: data.Get("face").String(),
		Money:  data.Get("money").Float(),
		Level:  int(data.Get("level_info.current_level").Int()),
	}
	// 统计信息尽力而为，失败不影响登录
	if err := c.fetchStatsLocked(profile); err != nil {
		c.logger.WithError(err).Debug("获取用户统计信息失败")
	}

	c.profile = profile
	c.loggedIn = true

	if c.roomID == "" {
		if err := c.resolveRoomIDLocked(profile.Mid); err != nil {
			c.logger.WithError(err).Warn("解析直播间号失败")
		}
	}
	return nil
}

func (c *Client) fetchStatsLocked(profile *Profile) error {
	result, _, err := c.exec.do(apiRequest{
		op:      "nav_stat",
		method:  http.MethodGet,
		url:     c.hosts.API + navStatPath,
		headers: liveHeaders(),
		cookies: c.cookies,
	})
	if err != nil {
		return err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return newAPIError(code, msg)
	}
	data := result.Get("data")
	profile.Following = data.Get("following").Int()
	profile.Follower = data.Get("follower").Int()
	profile.DynamicCount = data.Get("dynamic_count").Int()
	profile.StatsLoaded = true
	return nil
}

// resolveRoomIDLocked 按 uid 查直播间号，没有开通直播间时远端返回 0
func (c *Client) resolveRoomIDLocked(mid int64) error {
	result, _, err := c.exec.do(apiRequest{
		op:      "room_id_by_uid",
		method:  http.MethodGet,
		url:     c.hosts.Live + roomIDByUIDPath + "?uid=" + url.QueryEscape(strconv.FormatInt(mid, 10)),
		headers: liveHeaders(),
		cookies: c.cookies,
	})
	if err != nil {
		return err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return newAPIError(code, msg)
	}
	roomID := result.Get("data.room_id").Int()
	if roomID <= 0 {
		return fmt.Errorf("%w: room_id_by_uid: no live room for uid %d", ErrInvalidResponse, mid)
	}
	c.roomID = strconv.FormatInt(roomID, 10)
	return nil
}
