package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// FetchRoomInfo 拉取直播间信息并更新缓存。
// 优先用已知房间号查询，没有时退回 uid 查询。
func (c *Client) FetchRoomInfo() (*RoomInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loggedIn || c.profile == nil {
		return nil, ErrAuthenticationRequired
	}
	roomID := c.roomID
	if roomID == "" {
		if err := c.resolveRoomIDLocked(c.profile.Mid); err != nil {
			// 解析不到房间号时用 uid 代替，get_info 两者都接受
			c.logger.WithError(err).Debug("解析直播间号失败，改用 uid 查询")
			roomID = strconv.FormatInt(c.profile.Mid, 10)
		} else {
			roomID = c.roomID
		}
	}

	result, _, err := c.exec.do(apiRequest{
		op:      "room_info",
		method:  http.MethodGet,
		url:     c.hosts.Live + roomInfoPath + "?room_id=" + url.QueryEscape(roomID),
		headers: liveHeaders(),
		cookies: c.cookies,
	})
	if err != nil {
		return nil, err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return nil, newAPIError(code, msg)
	}

	data := result.Get("data")
	info := &RoomInfo{
		RoomID:         data.Get("room_id").Int(),
		Title:          data.Get("title").String(),
		AreaID:         data.Get("area_id").Int(),
		AreaName:       data.Get("area_name").String(),
		ParentAreaID:   data.Get("parent_area_id").Int(),
		ParentAreaName: data.Get("parent_area_name").String(),
		LiveStatus:     int(data.Get("live_status").Int()),
	}
	c.roomInfo = info
	c.initialRoomInfoLoaded = true
	c.publishLocked()

	r := *info
	return &r, nil
}

// ListPartitions 拉取全部直播分区并整体替换本地缓存
func (c *Client) ListPartitions() ([]Partition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, _, err := c.exec.do(apiRequest{
		op:      "area_list",
		method:  http.MethodGet,
		url:     c.hosts.Live + areaListPath + "?show_pinyin=1",
		headers: liveHeaders(),
		cookies: c.cookies,
	})
	if err != nil {
		return nil, err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return nil, newAPIError(code, msg)
	}

	raw := result.Get("data")
	partitions := make([]Partition, 0, len(raw.Array()))
	for _, p := range raw.Array() {
		partition := Partition{
			ID:   p.Get("id").Int(),
			Name: p.Get("name").String(),
		}
		for _, sub := range p.Get("list").Array() {
			partition.Children = append(partition.Children, SubPartition{
				ID:   sub.Get("id").Int(),
				Name: sub.Get("name").String(),
			})
		}
		partitions = append(partitions, partition)
	}

	c.partitions = partitions
	c.publishLocked()

	out := make([]Partition, len(partitions))
	copy(out, partitions)
	return out, nil
}

// UpdateTitle 修改直播间标题。只提交远端，不动本地 RoomInfo 缓存，
// 需要最新值的调用方应随后 FetchRoomInfo。
func (c *Client) UpdateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return err
	}
	return c.updateRoomLocked(map[string]string{
		"room_id":    c.roomID,
		"platform":   "pc_link",
		"title":      title,
		"csrf_token": c.csrfToken,
		"csrf":       c.csrfToken,
	})
}

// UpdatePartition 修改直播间的二级分区，同样不刷新本地缓存
func (c *Client) UpdatePartition(areaID int64) error {
	if areaID <= 0 {
		return fmt.Errorf("%w: invalid area id %d", ErrInvalidInput, areaID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return err
	}
	return c.updateRoomLocked(map[string]string{
		"room_id":    c.roomID,
		"platform":   "pc_link",
		"area_id":    fmt.Sprintf("%d", areaID),
		"csrf_token": c.csrfToken,
		"csrf":       c.csrfToken,
	})
}

func (c *Client) updateRoomLocked(form map[string]string) error {
	result, _, err := c.exec.do(apiRequest{
		op:      "room_update",
		method:  http.MethodPost,
		url:     c.hosts.Live + roomUpdatePath,
		headers: liveHeaders(),
		cookies: c.cookies,
		form:    form,
	})
	if err != nil {
		return err
	}
	if code, msg := codeAndMessage(result); code != 0 {
		return newAPIError(code, msg)
	}
	return nil
}
