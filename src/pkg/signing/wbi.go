// Package signing 实现 B 站接口要求的两套请求签名算法：
// WBI（w_rid/wts，混淆 key 来自 nav 接口下发的两个轮换字符串）和 appkey/appsec 签名。
package signing

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hr3lxphr6j/requests"
	"github.com/tidwall/gjson"
)

const navURL = "https://api.bilibili.com/x/web-interface/nav"

// mixinKeyEncTab 是固定的字符置换表，混淆 key 取置换后的前 32 个字符
var mixinKeyEncTab = []int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35, 27, 43, 5, 49,
	33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13, 37, 48, 7, 16, 24, 55, 40,
	61, 26, 17, 0, 1, 60, 51, 30, 4, 22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11,
	36, 20, 34, 44, 52,
}

// MixinKey 由 imgKey+subKey 按置换表派生 32 位混淆 key
func MixinKey(imgKey, subKey string) string {
	orig := []rune(imgKey + subKey)
	var b strings.Builder
	for _, i := range mixinKeyEncTab[:32] {
		if i < len(orig) {
			b.WriteRune(orig[i])
		}
	}
	return b.String()
}

// EncWbi 对参数做 WBI 签名，注入当前时间戳的 wts 并附加 w_rid
func EncWbi(params map[string]string, imgKey, subKey string) map[string]string {
	return EncWbiAt(params, imgKey, subKey, time.Now().Unix())
}

// EncWbiAt 与 EncWbi 相同，但使用调用方给定的时间戳（测试用）
func EncWbiAt(params map[string]string, imgKey, subKey string, ts int64) map[string]string {
	mixinKey := MixinKey(imgKey, subKey)

	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["wts"] = strconv.FormatInt(ts, 10)

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+stripUnsafe(signed[k]))
	}
	query := strings.Join(parts, "&")

	signed["w_rid"] = md5Hex(query + mixinKey)
	return signed
}

// stripUnsafe 移除 value 中的 ! ' ( ) * 字符，签名前的约定过滤
func stripUnsafe(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '!', '\'', '(', ')', '*':
			return -1
		}
		return r
	}, value)
}

// SortedQuery 将参数按 key 排序后拼接为 k=v&… 查询串
func SortedQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// FetchWbiKeys 请求 nav 接口获取当前轮换的 img/sub key。
// 两个 key 是下发 URL 的文件名主干（最后一个 / 之后、最后一个 . 之前）。
func FetchWbiKeys(session *requests.Session, userAgent string) (imgKey, subKey string, err error) {
	return FetchWbiKeysFrom(session, navURL, userAgent)
}

// FetchWbiKeysFrom 与 FetchWbiKeys 相同，但允许覆盖端点（测试用）
func FetchWbiKeysFrom(session *requests.Session, url, userAgent string) (imgKey, subKey string, err error) {
	resp, err := session.Get(url,
		requests.UserAgent(userAgent),
		requests.Headers(map[string]interface{}{"Referer": "https://www.bilibili.com/"}),
	)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch wbi keys: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("wbi key endpoint returned status %d", resp.StatusCode)
	}
	body, err := resp.Bytes()
	if err != nil {
		return "", "", fmt.Errorf("failed to read wbi key response: %w", err)
	}

	imgURL := gjson.GetBytes(body, "data.wbi_img.img_url").String()
	subURL := gjson.GetBytes(body, "data.wbi_img.sub_url").String()
	imgKey = fileStem(imgURL)
	subKey = fileStem(subURL)
	if imgKey == "" || subKey == "" {
		return "", "", fmt.Errorf("wbi key response missing key urls")
	}
	return imgKey, subKey, nil
}

// fileStem 取 URL 路径最后一段的文件名主干
func fileStem(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	name := rawURL
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
