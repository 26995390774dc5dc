package api

// Profile 登录用户的信息快照，每次成功拉取后整体替换
type Profile struct {
	Mid          int64   `json:"mid"`
	Name         string  `json:"name"`
	Avatar       string  `json:"avatar"`
	Money        float64 `json:"money"`
	Level        int     `json:"level"`
	Follower     int64   `json:"follower"`
	Following    int64   `json:"following"`
	DynamicCount int64   `json:"dynamic_count"`
	// StatsLoaded 统计信息（关注/粉丝/动态）是否拉取成功。
	// 统计接口失败不影响整体 Profile 拉取。
	StatsLoaded bool `json:"stats_loaded"`
}

// SubPartition 二级直播分区
type SubPartition struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Partition 一级直播分区及其子分区
type Partition struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Children []SubPartition `json:"children"`
}

// RoomInfo 直播间信息快照
type RoomInfo struct {
	RoomID         int64  `json:"room_id"`
	Title          string `json:"title"`
	AreaID         int64  `json:"area_id"`
	AreaName       string `json:"area_name"`
	ParentAreaID   int64  `json:"parent_area_id"`
	ParentAreaName string `json:"parent_area_name"`
	LiveStatus     int    `json:"live_status"`
}

// StreamTarget 开播成功后下发的推流地址和推流码
type StreamTarget struct {
	Addr string `json:"addr"`
	Key  string `json:"key"`
}

// QRLoginTicket 一次扫码登录的凭证，由 generate 接口下发，
// 在服务端过期（通常数分钟）前可反复用于轮询
type QRLoginTicket struct {
	URL string `json:"url"`
	Key string `json:"qrcode_key"`
}
