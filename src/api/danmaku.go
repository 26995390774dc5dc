package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bililink-go/bililink-go/src/pkg/signing"
)

// SendChatMessage 以当前登录用户身份向自己的直播间发送一条弹幕。
// 发送接口要求 WBI 签名，签名 key 每日轮换，所以每次发送前重新获取。
func (c *Client) SendChatMessage(text string) error {
	if text == "" {
		return fmt.Errorf("%w: empty message", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return err
	}

	imgKey, subKey, err := signing.FetchWbiKeysFrom(c.exec.session, c.hosts.API+navPath, userAgent)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	signed := signing.EncWbi(map[string]string{"web_location": "444.8"}, imgKey, subKey)

	result, _, err := c.exec.do(apiRequest{
		op:      "msg_send",
		method:  http.MethodPost,
		url:     c.hosts.Live + msgSendPath + "?" + signing.SortedQuery(signed),
		headers: liveHeaders(),
		cookies: c.cookies,
		form: map[string]string{
			"msg":        text,
			"color":      "16777215",
			"fontsize":   "25",
			"rnd":        strconv.FormatInt(time.Now().Unix(), 10),
			"roomid":     c.roomID,
			"csrf_token": c.csrfToken,
			"csrf":       c.csrfToken,
		},
	})
	if err != nil {
		return err
	}

	code, msg := codeAndMessage(result)
	switch code {
	case 0:
		return nil
	case 1003212:
		return newAPIError(code, "消息长度超出限制")
	case -101:
		return newAPIError(code, "未登录")
	case -400:
		return newAPIError(code, "请求参数错误")
	case 10031:
		return newAPIError(code, "发送频率过快，请稍后再试")
	default:
		if msg == "" {
			msg = "发送失败"
		}
		return newAPIError(code, msg)
	}
}
