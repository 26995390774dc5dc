package api

import (
	"net/http"
	"net/url"
	"strings"
)

// Cookie 会话内保存的单个 cookie
type Cookie struct {
	Name  string
	Value string
}

// parseCookieString 解析 "k=v; k2=v2" 形式的 cookie 串。
// 按 ; 分段，每段取第一个 = 左右作为键值，值做百分号解码；格式错误的段直接跳过。
func parseCookieString(s string) []Cookie {
	cookies := make([]Cookie, 0)
	for _, segment := range strings.Split(s, ";") {
		pair := strings.SplitN(segment, "=", 2)
		if len(pair) != 2 {
			continue
		}
		name := strings.TrimSpace(pair[0])
		value := strings.TrimSpace(pair[1])
		if name == "" {
			continue
		}
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		cookies = append(cookies, Cookie{Name: name, Value: value})
	}
	return cookies
}

// cookieHeader 将 cookie 集合序列化为单个 Cookie 请求头的值
func cookieHeader(cookies []Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// cookieValue 按名字查找 cookie 值，找不到返回空串
func cookieValue(cookies []Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// cookiesFromResponse 从响应的 Set-Cookie 头中提取 cookie
func cookiesFromResponse(resp *http.Response) []Cookie {
	if resp == nil {
		return nil
	}
	parsed := resp.Cookies()
	cookies := make([]Cookie, 0, len(parsed))
	for _, c := range parsed {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies
}
