package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoomInfoBody = `{"code":0,"message":"ok","data":{"room_id":98765,"title":"打游戏",` +
	`"area_id":86,"area_name":"英雄联盟","parent_area_id":2,"parent_area_name":"网游","live_status":0}}`

func TestFetchRoomInfo(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.handle(roomInfoPath, func(w http.ResponseWriter, r *http.Request, _ int) {
		assert.Equal(t, "98765", r.URL.Query().Get("room_id"))
		writeJSON(w, testRoomInfoBody)
	})
	c := newTestClient(t, upstream)
	loginManually(t, c)

	info, err := c.FetchRoomInfo()
	require.NoError(t, err)
	assert.Equal(t, int64(98765), info.RoomID)
	assert.Equal(t, "打游戏", info.Title)
	assert.Equal(t, int64(86), info.AreaID)
	assert.Equal(t, "网游", info.ParentAreaName)

	snap := c.Snapshot()
	assert.True(t, snap.InitialRoomInfoLoaded)
	require.NotNil(t, snap.RoomInfo)
	assert.Equal(t, "打游戏", snap.RoomInfo.Title)
}

func TestFetchRoomInfo_FallsBackToUID(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.reply(navPath, testNavBody)
	upstream.reply(navStatPath, testNavStatBody)
	// 账号没开通直播间，room_id_by_uid 查不到
	upstream.reply(roomIDByUIDPath, `{"code":0,"message":"ok","data":{"room_id":0}}`)
	upstream.handle(qrPollPath, func(w http.ResponseWriter, _ *http.Request, _ int) {
		http.SetCookie(w, &http.Cookie{Name: "SESSDATA", Value: "s"})
		http.SetCookie(w, &http.Cookie{Name: "bili_jct", Value: "t"})
		writeJSON(w, `{"code":0,"data":{"code":0}}`)
	})
	upstream.handle(roomInfoPath, func(w http.ResponseWriter, r *http.Request, _ int) {
		assert.Equal(t, "42", r.URL.Query().Get("room_id"))
		writeJSON(w, testRoomInfoBody)
	})
	c := newTestClient(t, upstream)

	done, err := c.PollQRLogin(&QRLoginTicket{Key: "abc"})
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, c.Snapshot().RoomID)

	info, err := c.FetchRoomInfo()
	require.NoError(t, err)
	assert.Equal(t, "打游戏", info.Title)
	assert.Equal(t, 1, upstream.hitCount(roomInfoPath))
}

func TestFetchRoomInfo_RequiresLogin(t *testing.T) {
	upstream := newFakeUpstream()
	c := newTestClient(t, upstream)

	_, err := c.FetchRoomInfo()
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, 0, upstream.hitCount(roomInfoPath))
}

func TestListPartitions(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.reply(areaListPath, `{"code":0,"message":"ok","data":[`+
		`{"id":2,"name":"网游","list":[{"id":86,"name":"英雄联盟"},{"id":92,"name":"DOTA2"}]},`+
		`{"id":3,"name":"手游","list":[{"id":35,"name":"王者荣耀"}]}]}`)
	c := newTestClient(t, upstream)

	partitions, err := c.ListPartitions()
	require.NoError(t, err)
	require.Len(t, partitions, 2)
	assert.Equal(t, "网游", partitions[0].Name)
	require.Len(t, partitions[0].Children, 2)
	assert.Equal(t, int64(92), partitions[0].Children[1].ID)

	snap := c.Snapshot()
	require.Len(t, snap.Partitions, 2)
}

func TestUpdateTitle(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.handle(roomUpdatePath, func(w http.ResponseWriter, r *http.Request, _ int) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "新标题", r.PostForm.Get("title"))
		assert.Equal(t, "deadbeef", r.PostForm.Get("csrf"))
		assert.Equal(t, "pc_link", r.PostForm.Get("platform"))
		writeJSON(w, `{"code":0,"message":"ok"}`)
	})
	c := newTestClient(t, upstream)
	loginManually(t, c)

	require.NoError(t, c.UpdateTitle("新标题"))
	assert.Equal(t, 1, upstream.hitCount(roomUpdatePath))
}

func TestUpdateTitle_Validation(t *testing.T) {
	upstream := newFakeUpstream()
	c := newTestClient(t, upstream)

	assert.ErrorIs(t, c.UpdateTitle(""), ErrInvalidInput)
	assert.ErrorIs(t, c.UpdateTitle("标题"), ErrAuthenticationRequired)
	assert.Equal(t, 0, upstream.hitCount(roomUpdatePath))
}

func TestUpdatePartition(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.handle(roomUpdatePath, func(w http.ResponseWriter, r *http.Request, _ int) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "86", r.PostForm.Get("area_id"))
		writeJSON(w, `{"code":0,"message":"ok"}`)
	})
	c := newTestClient(t, upstream)
	loginManually(t, c)

	require.NoError(t, c.UpdatePartition(86))
	assert.ErrorIs(t, c.UpdatePartition(0), ErrInvalidInput)
}

func TestUpdateRoom_APIError(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	upstream.reply(roomUpdatePath, `{"code":-400,"message":"参数错误"}`)
	c := newTestClient(t, upstream)
	loginManually(t, c)

	err := c.UpdateTitle("标题")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int64(-400), apiErr.Code)
	assert.Equal(t, "参数错误", apiErr.Message)
}
