package api

import "time"

// Snapshot 某一时刻会话状态的一致性副本，发布给 UI / RPC 订阅者
type Snapshot struct {
	LoggedIn bool     `json:"logged_in"`
	Profile  *Profile `json:"profile,omitempty"`
	RoomID   string   `json:"room_id"`
	RoomInfo *RoomInfo `json:"room_info,omitempty"`
	// InitialRoomInfoLoaded 登录后是否成功拉取过一次房间信息，
	// UI 用它区分"还没加载"和"没有房间"
	InitialRoomInfoLoaded bool          `json:"initial_room_info_loaded"`
	Partitions            []Partition   `json:"partitions,omitempty"`
	LiveActive            bool          `json:"live_active"`
	CurrentStream         *StreamTarget `json:"current_stream,omitempty"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// Snapshot 返回当前会话状态的副本
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() Snapshot {
	snap := Snapshot{
		LoggedIn:              c.loggedIn,
		RoomID:                c.roomID,
		InitialRoomInfoLoaded: c.initialRoomInfoLoaded,
		LiveActive:            c.liveActive,
		UpdatedAt:             time.Now(),
	}
	if c.profile != nil {
		p := *c.profile
		snap.Profile = &p
	}
	if c.roomInfo != nil {
		r := *c.roomInfo
		snap.RoomInfo = &r
	}
	if c.currentStream != nil {
		s := *c.currentStream
		snap.CurrentStream = &s
	}
	if len(c.partitions) > 0 {
		snap.Partitions = make([]Partition, len(c.partitions))
		copy(snap.Partitions, c.partitions)
	}
	return snap
}

// Subscribe 注册一个状态订阅者，返回接收通道和取消函数。
// 通道带缓冲，消费不及时会丢弃中间快照，订阅者总能拿到较新的状态。
func (c *Client) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

// publishLocked 向所有订阅者广播当前状态，调用方必须持有 mu
func (c *Client) publishLocked() {
	snap := c.snapshotLocked()
	c.subMu.Lock()
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	c.subMu.Unlock()
}
