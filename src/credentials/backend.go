package credentials

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// keyringBackend 基于系统钥匙串（macOS Keychain / Windows Credential
// Manager / libsecret）的敏感数据后端
type keyringBackend struct {
	service string
	account string
}

// NewKeyringBackend 返回使用系统钥匙串的后端
func NewKeyringBackend() SecretsBackend {
	return &keyringBackend{service: ServiceName, account: AccountName}
}

func (b *keyringBackend) Set(blob string) error {
	return keyring.Set(b.service, b.account, blob)
}

func (b *keyringBackend) Get() (string, error) {
	secret, err := keyring.Get(b.service, b.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return secret, err
}

func (b *keyringBackend) Delete() error {
	err := keyring.Delete(b.service, b.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// MemoryBackend 进程内的敏感数据后端，测试和无钥匙串环境使用
type MemoryBackend struct {
	mu   sync.Mutex
	blob string
	set  bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Set(blob string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blob = blob
	b.set = true
	return nil
}

func (b *MemoryBackend) Get() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.set {
		return "", nil
	}
	return b.blob, nil
}

func (b *MemoryBackend) Delete() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blob = ""
	b.set = false
	return nil
}
