package sentry

import (
	"context"
	"strings"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/bililink-go/bililink-go/src/pkg/metadata"
)

var (
	cachedDeviceID string
	deviceIDOnce   sync.Once
)

// GetAnonymousDeviceID 获取匿名设备 ID
// 首次调用时会从 metadata 数据库读取或生成新的 UUID，后续调用返回缓存的值
func GetAnonymousDeviceID() string {
	deviceIDOnce.Do(func() {
		cachedDeviceID = loadOrCreateDeviceID()
	})
	return cachedDeviceID
}

func loadOrCreateDeviceID() string {
	store := metadata.GetStore()
	if store == nil {
		// metadata 存储未初始化，返回临时 UUID
		return generateUUID()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deviceID, err := store.Get(ctx, metadata.NamespaceDevice, metadata.KeyDeviceID)
	if err == nil && deviceID != "" {
		return deviceID
	}

	deviceID = generateUUID()
	// 保存失败不影响返回
	_ = store.Set(ctx, metadata.NamespaceDevice, metadata.KeyDeviceID, deviceID)
	return deviceID
}

// generateUUID 生成一个去掉连字符的 UUID（32 位十六进制字符串）
func generateUUID() string {
	id := uuid.Must(uuid.NewV4())
	return strings.ReplaceAll(id.String(), "-", "")
}
