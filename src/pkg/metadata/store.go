// Package metadata 提供本地元数据的持久化存储
// 用于存放设备标识和登录信息中的非敏感部分，这些数据需要在进程重启后保持完整
package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	globalStore *Store
	storeMu     sync.RWMutex
)

// Store 基于 sqlite 的 (namespace, key) -> value 存储
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Init 初始化全局元数据存储，dbDir 一般是 AppDataPath/db
func Init(dbDir string) error {
	storeMu.Lock()
	defer storeMu.Unlock()

	if globalStore != nil {
		return nil
	}

	store, err := Open(filepath.Join(dbDir, "metadata.db"))
	if err != nil {
		return err
	}
	globalStore = store
	return nil
}

// Open 打开指定路径的元数据数据库（测试用独立实例）
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at INTEGER DEFAULT (strftime('%s', 'now')),
			updated_at INTEGER DEFAULT (strftime('%s', 'now')),
			PRIMARY KEY (namespace, key)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// GetStore 获取全局元数据存储实例，未初始化时返回 nil
func GetStore() *Store {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return globalStore
}

// Close 关闭全局元数据存储
func Close() error {
	storeMu.Lock()
	defer storeMu.Unlock()

	if globalStore == nil {
		return nil
	}
	err := globalStore.db.Close()
	globalStore = nil
	return err
}

// CloseStore 关闭一个独立实例
func (s *Store) CloseStore() error {
	return s.db.Close()
}

// Get 读取一个键，不存在时返回空字符串
func (s *Store) Get(ctx context.Context, namespace, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("metadata query failed: %w", err)
	}
	return value, nil
}

// Set 写入一个键，已存在时覆盖
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (namespace, key, value, updated_at)
		 VALUES (?, ?, ?, strftime('%s', 'now'))
		 ON CONFLICT(namespace, key) DO UPDATE SET
		 value = excluded.value,
		 updated_at = strftime('%s', 'now')`,
		namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("metadata write failed: %w", err)
	}
	return nil
}

// SetMany 在一个事务内写入同一命名空间下的多个键
func (s *Store) SetMany(ctx context.Context, namespace string, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metadata transaction failed: %w", err)
	}
	for key, value := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metadata (namespace, key, value, updated_at)
			 VALUES (?, ?, ?, strftime('%s', 'now'))
			 ON CONFLICT(namespace, key) DO UPDATE SET
			 value = excluded.value,
			 updated_at = strftime('%s', 'now')`,
			namespace, key, value,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("metadata write failed: %w", err)
		}
	}
	return tx.Commit()
}

// Delete 删除一个键，键不存在时也返回成功
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM metadata WHERE namespace = ? AND key = ?",
		namespace, key,
	)
	if err != nil {
		return fmt.Errorf("metadata delete failed: %w", err)
	}
	return nil
}

// GetAll 获取指定命名空间的所有键值对
func (s *Store) GetAll(ctx context.Context, namespace string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM metadata WHERE namespace = ?",
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("metadata query failed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("metadata scan failed: %w", err)
		}
		result[key] = value
	}
	return result, rows.Err()
}

// DeleteNamespace 删除整个命名空间
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM metadata WHERE namespace = ?",
		namespace,
	)
	if err != nil {
		return fmt.Errorf("metadata namespace delete failed: %w", err)
	}
	return nil
}

// 预定义的命名空间常量
const (
	// NamespaceDevice 设备相关信息（如 Sentry 设备 ID）
	NamespaceDevice = "device"
	// NamespaceCredentials 登录信息中的非敏感部分
	NamespaceCredentials = "credentials"
)

// 预定义的键常量
const (
	// KeyDeviceID Sentry 设备标识
	KeyDeviceID = "sentry_device_id"
)
