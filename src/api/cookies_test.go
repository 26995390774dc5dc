package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCookieString(t *testing.T) {
	cookies := parseCookieString("SESSDATA=abc%2C123; bili_jct=deadbeef; DedeUserID=42")
	require.Len(t, cookies, 3)
	// 值做百分号解码
	assert.Equal(t, Cookie{Name: "SESSDATA", Value: "abc,123"}, cookies[0])
	assert.Equal(t, Cookie{Name: "bili_jct", Value: "deadbeef"}, cookies[1])
	assert.Equal(t, Cookie{Name: "DedeUserID", Value: "42"}, cookies[2])
}

func TestParseCookieString_SkipsMalformedSegments(t *testing.T) {
	cookies := parseCookieString("valid=1; no-equals-sign; =no-name; another=2;")
	require.Len(t, cookies, 2)
	assert.Equal(t, "valid", cookies[0].Name)
	assert.Equal(t, "another", cookies[1].Name)
}

func TestParseCookieString_ValueWithEquals(t *testing.T) {
	// 只按第一个 = 切分，值里的 = 保留
	cookies := parseCookieString("token=a=b=c")
	require.Len(t, cookies, 1)
	assert.Equal(t, "a=b=c", cookies[0].Value)
}

func TestParseCookieString_Empty(t *testing.T) {
	assert.Empty(t, parseCookieString(""))
	assert.Empty(t, parseCookieString(";;;"))
}

func TestCookieHeaderRoundTrip(t *testing.T) {
	original := "SESSDATA=abc; bili_jct=deadbeef"
	assert.Equal(t, original, cookieHeader(parseCookieString(original)))
}

func TestCookieValue(t *testing.T) {
	cookies := []Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}
	assert.Equal(t, "2", cookieValue(cookies, "b"))
	assert.Equal(t, "", cookieValue(cookies, "missing"))
}
