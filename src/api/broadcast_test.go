package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClickNowBody = `{"code":0,"message":"0","data":{"now":1700000000}}`
	testVersionBody  = `{"code":0,"message":"ok","data":{"curr_version":"6.9.0.8996","build":8996,"instal_url":""}}`
	testStartBody    = `{"code":0,"message":"ok","data":{"rtmp":{"addr":"rtmp://live-push.example.com/live-bvc/","code":"?streamname=live_42_xxx&key=secret"}}}`
)

// withBroadcastEndpoints 注册开播流程的全部接口
func (f *fakeUpstream) withBroadcastEndpoints() {
	f.reply(clickNowPath, testClickNowBody)
	f.handle(liveVersionPath, func(w http.ResponseWriter, r *http.Request, _ int) {
		q := r.URL.Query()
		if q.Get("sign") == "" || q.Get("appkey") == "" || q.Get("ts") == "" {
			writeJSON(w, `{"code":-3,"message":"API校验密匙错误"}`)
			return
		}
		writeJSON(w, testVersionBody)
	})
	f.reply(roomUpdatePath, `{"code":0,"message":"ok"}`)
}

func TestStartBroadcast(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.withBroadcastEndpoints()
	upstream.handle(startLivePath, func(w http.ResponseWriter, r *http.Request, _ int) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "98765", r.PostForm.Get("room_id"))
		assert.Equal(t, "86", r.PostForm.Get("area_v2"))
		assert.Equal(t, "pc_link", r.PostForm.Get("platform"))
		assert.Equal(t, "8996", r.PostForm.Get("build"))
		assert.Equal(t, "6.9.0.8996", r.PostForm.Get("version"))
		assert.NotEmpty(t, r.PostForm.Get("sign"))
		assert.NotEmpty(t, r.PostForm.Get("appkey"))
		writeJSON(w, testStartBody)
	})
	c := newTestClient(t, upstream)
	loginManually(t, c)

	target, err := c.StartBroadcast("新标题", 86)
	require.NoError(t, err)
	assert.Equal(t, "rtmp://live-push.example.com/live-bvc/", target.Addr)
	assert.Contains(t, target.Key, "key=secret")

	snap := c.Snapshot()
	assert.True(t, snap.LiveActive)
	require.NotNil(t, snap.CurrentStream)

	// 四步各执行一次
	assert.Equal(t, 1, upstream.hitCount(clickNowPath))
	assert.Equal(t, 1, upstream.hitCount(liveVersionPath))
	assert.Equal(t, 1, upstream.hitCount(roomUpdatePath))
	assert.Equal(t, 1, upstream.hitCount(startLivePath))
}

func TestStartBroadcast_FaceVerification(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.withBroadcastEndpoints()
	upstream.reply(startLivePath,
		`{"code":60024,"message":"需要人脸认证","data":{"qr":"https://www.bilibili.com/blackboard/activity-face-auth.html?t=abc"}}`)
	c := newTestClient(t, upstream)
	loginManually(t, c)

	_, err := c.StartBroadcast("标题", 86)
	var verify *VerificationRequiredError
	require.ErrorAs(t, err, &verify)
	// 认证 URL 原样透传给调用方
	assert.Equal(t, "https://www.bilibili.com/blackboard/activity-face-auth.html?t=abc", verify.URL)
	assert.False(t, c.Snapshot().LiveActive)
}

func TestStartBroadcast_AbortsOnTitleFailure(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.reply(clickNowPath, testClickNowBody)
	upstream.reply(liveVersionPath, testVersionBody)
	upstream.reply(roomUpdatePath, `{"code":1,"message":"标题包含敏感词"}`)
	c := newTestClient(t, upstream)
	loginManually(t, c)

	_, err := c.StartBroadcast("标题", 86)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int64(1), apiErr.Code)

	// 后续步骤不再执行，直播状态不变
	assert.Equal(t, 0, upstream.hitCount(startLivePath))
	assert.False(t, c.Snapshot().LiveActive)
}

func TestStartBroadcast_Validation(t *testing.T) {
	upstream := newFakeUpstream()
	c := newTestClient(t, upstream)

	_, err := c.StartBroadcast("", 86)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.StartBroadcast("标题", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.StartBroadcast("标题", 86)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, 0, upstream.hitCount(clickNowPath))
}

func TestStopBroadcast(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.withBroadcastEndpoints()
	upstream.reply(startLivePath, testStartBody)
	upstream.handle(stopLivePath, func(w http.ResponseWriter, r *http.Request, _ int) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "98765", r.PostForm.Get("room_id"))
		assert.Equal(t, "deadbeef", r.PostForm.Get("csrf"))
		writeJSON(w, `{"code":0,"message":"ok","data":{"change":1}}`)
	})
	c := newTestClient(t, upstream)
	loginManually(t, c)

	_, err := c.StartBroadcast("标题", 86)
	require.NoError(t, err)
	require.True(t, c.Snapshot().LiveActive)

	require.NoError(t, c.StopBroadcast())
	snap := c.Snapshot()
	assert.False(t, snap.LiveActive)
	assert.Nil(t, snap.CurrentStream)
}

func TestStopBroadcast_RequiresSession(t *testing.T) {
	upstream := newFakeUpstream()
	c := newTestClient(t, upstream)
	assert.ErrorIs(t, c.StopBroadcast(), ErrAuthenticationRequired)
}
