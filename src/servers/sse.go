package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bililink-go/bililink-go/src/api"
	"github.com/bililink-go/bililink-go/src/pkg/sentry"
)

// SSEEventType SSE 事件类型
type SSEEventType string

const (
	// SSEEventStateUpdate 会话状态更新（登录、房间信息、直播状态）
	SSEEventStateUpdate SSEEventType = "state_update"
)

// SSEMessage SSE 消息结构
type SSEMessage struct {
	Type SSEEventType `json:"type"`
	Data interface{}  `json:"data"`
}

// SSEHub 管理所有 SSE 连接
type SSEHub struct {
	mu      sync.RWMutex
	clients map[chan SSEMessage]struct{}
	closeCh chan struct{} // 关闭信号 channel
	closed  bool
}

var (
	sseHub     *SSEHub
	sseHubOnce sync.Once
)

// GetSSEHub 获取全局 SSE Hub 单例
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		sseHub = &SSEHub{
			clients: make(map[chan SSEMessage]struct{}),
			closeCh: make(chan struct{}),
		}
	})
	return sseHub
}

// AddClient 添加一个 SSE 客户端
func (h *SSEHub) AddClient(ch chan SSEMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
}

// RemoveClient 移除一个 SSE 客户端
func (h *SSEHub) RemoveClient(ch chan SSEMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broadcast 向所有客户端广播消息
func (h *SSEHub) Broadcast(msg SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// 如果 channel 满了，跳过这条消息（避免阻塞）
		}
	}
}

// BroadcastStateUpdate 广播会话状态更新
func (h *SSEHub) BroadcastStateUpdate(snap api.Snapshot) {
	h.Broadcast(SSEMessage{
		Type: SSEEventStateUpdate,
		Data: snap,
	})
}

// ClientCount 获取当前连接的客户端数量
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close 关闭所有 SSE 连接
// 这会触发所有 sseHandler 退出
func (h *SSEHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.closeCh)
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// Done 返回关闭信号 channel
func (h *SSEHub) Done() <-chan struct{} {
	return h.closeCh
}

// sseHandler 处理 SSE 连接请求
func sseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	clientCh := make(chan SSEMessage, 100)
	hub := GetSSEHub()
	hub.AddClient(clientCh)

	// 新连接先推一次当前状态，避免客户端等到下次变更才有数据
	if client := getClient(r); client != nil {
		if data, err := json.Marshal(SSEMessage{Type: SSEEventStateUpdate, Data: client.Snapshot()}); err == nil {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", SSEEventStateUpdate, data)
		}
	}
	flusher.Flush()

	heartbeatTicker := time.NewTicker(30 * time.Second)
	defer heartbeatTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			// 客户端断开连接
			hub.RemoveClient(clientCh)
			return

		case <-hub.Done():
			// 服务器关闭，强制退出
			return

		case <-heartbeatTicker.C:
			fmt.Fprintf(w, ":heartbeat\n\n")
			flusher.Flush()

		case msg, ok := <-clientCh:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			flusher.Flush()
		}
	}
}

// RegisterStateForwarder 订阅客户端的状态变更并转发到 SSE Hub。
// ctx 取消或 hub 关闭时退出。
func RegisterStateForwarder(ctx context.Context, client *api.Client) {
	snapshots, cancel := client.Subscribe()
	hub := GetSSEHub()

	sentry.GoWithContext(ctx, func(ctx context.Context) {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hub.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				hub.BroadcastStateUpdate(snap)
			}
		}
	})
}
