// Package avatarcache 缓存用户头像，避免每次状态刷新都重新下载
package avatarcache

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/hr3lxphr6j/requests"
)

const defaultTimeout = 10 * time.Second

// Cache 按 URL 缓存头像字节，LRU 淘汰
type Cache struct {
	cache   gcache.Cache
	session *requests.Session
}

// New 创建容量为 size 的头像缓存
func New(size int) *Cache {
	return &Cache{
		cache:   gcache.New(size).LRU().Build(),
		session: requests.NewSession(&http.Client{Timeout: defaultTimeout}),
	}
}

// Get 返回头像内容，缓存未命中时下载并写入缓存
func (c *Cache) Get(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty avatar url")
	}
	if v, err := c.cache.Get(url); err == nil {
		return v.([]byte), nil
	}

	resp, err := c.session.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download avatar: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar endpoint returned status %d", resp.StatusCode)
	}
	body, err := resp.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar response: %w", err)
	}

	_ = c.cache.Set(url, body)
	return body, nil
}

// Invalidate 移除一个 URL 的缓存，换头像后调用
func (c *Cache) Invalidate(url string) {
	c.cache.Remove(url)
}
