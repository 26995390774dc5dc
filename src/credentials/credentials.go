// Package credentials 负责登录凭据的持久化。
// cookie 串与 csrf 属于敏感数据，存放在系统钥匙串；房间号、昵称等非敏感字段
// 存放在本地 metadata 数据库，避免敏感信息出现在普通偏好存储里。
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bililink-go/bililink-go/src/pkg/metadata"
)

// ErrStorage 持久化失败
var ErrStorage = errors.New("credential storage error")

// 钥匙串条目标识
const (
	ServiceName = "com.bililink-go.session"
	AccountName = "login_info"
)

// 非敏感字段在 metadata 数据库中的键
const (
	keyRoomID     = "room_id"
	keyUserName   = "user_name"
	keyUserAvatar = "user_avatar"
	keyUserID     = "user_id"
	keySavedDate  = "saved_date"
)

// Credentials 一次登录的完整凭据
type Credentials struct {
	RoomID     string
	Cookies    string
	CSRF       string
	UserName   string
	UserAvatar string
	UserID     string
	SavedAt    time.Time
}

// secretBlob 钥匙串中保存的敏感部分
type secretBlob struct {
	Cookies string `json:"cookies"`
	CSRF    string `json:"csrf"`
}

// SecretsBackend 敏感数据的存取后端。Get 在条目不存在时返回 ("", nil)。
type SecretsBackend interface {
	Set(blob string) error
	Get() (string, error)
	Delete() error
}

// Store 凭据存储，敏感与非敏感两个分区的统一入口
type Store struct {
	secrets SecretsBackend
	meta    *metadata.Store
}

func NewStore(secrets SecretsBackend, meta *metadata.Store) *Store {
	return &Store{secrets: secrets, meta: meta}
}

// Save 保存完整凭据，覆盖任何已有条目
func (s *Store) Save(c *Credentials) error {
	blob, err := json.Marshal(secretBlob{Cookies: c.Cookies, CSRF: c.CSRF})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	// 钥匙串后端没有 upsert，先删再写
	_ = s.secrets.Delete()
	if err := s.secrets.Set(string(blob)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	savedAt := c.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	entries := map[string]string{
		keyRoomID:     c.RoomID,
		keyUserName:   c.UserName,
		keyUserAvatar: c.UserAvatar,
		keyUserID:     c.UserID,
		keySavedDate:  savedAt.Format(time.RFC3339),
	}
	if err := s.meta.SetMany(context.Background(), metadata.NamespaceCredentials, entries); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Load 读取已保存的凭据。没有保存过、或敏感分区不可读时返回 nil，从不返回错误。
func (s *Store) Load() *Credentials {
	raw, err := s.secrets.Get()
	if err != nil || raw == "" {
		return nil
	}
	var blob secretBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil
	}

	plain, err := s.meta.GetAll(context.Background(), metadata.NamespaceCredentials)
	if err != nil {
		return nil
	}
	if plain[keyRoomID] == "" {
		// 非敏感分区缺失，按未登录处理
		return nil
	}

	c := &Credentials{
		RoomID:     plain[keyRoomID],
		Cookies:    blob.Cookies,
		CSRF:       blob.CSRF,
		UserName:   plain[keyUserName],
		UserAvatar: plain[keyUserAvatar],
		UserID:     plain[keyUserID],
	}
	if t, err := time.Parse(time.RFC3339, plain[keySavedDate]); err == nil {
		c.SavedAt = t
	}
	return c
}

// Delete 删除两个分区的所有条目，可重复调用
func (s *Store) Delete() {
	_ = s.secrets.Delete()
	_ = s.meta.DeleteNamespace(context.Background(), metadata.NamespaceCredentials)
}

// HasSaved 是否存在已保存的凭据
func (s *Store) HasSaved() bool {
	return s.Load() != nil
}

// SavedAt 返回凭据的保存时间，没有保存过时返回 nil
func (s *Store) SavedAt() *time.Time {
	c := s.Load()
	if c == nil || c.SavedAt.IsZero() {
		return nil
	}
	t := c.SavedAt
	return &t
}
