package configs

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Log 日志配置
type Log struct {
	OutPutFolder string `yaml:"out_put_folder"`
	SaveLastLog  bool   `yaml:"save_last_log"`
}

// RPC 状态服务器配置（给外部 UI 轮询/订阅会话状态用）
type RPC struct {
	Enable bool   `yaml:"enable"`
	Bind   string `yaml:"bind"`
}

func (r *RPC) verify() error {
	if r == nil || !r.Enable {
		return nil
	}
	if _, _, err := net.SplitHostPort(r.Bind); err != nil {
		return fmt.Errorf("invalid rpc bind address %q: %w", r.Bind, err)
	}
	return nil
}

// Signing 直播开播接口使用的 appkey/appsec
type Signing struct {
	AppKey    string `yaml:"app_key"`
	AppSecret string `yaml:"app_secret"`
}

// Login 扫码登录配置
type Login struct {
	// PollIntervalMs 轮询二维码状态的间隔（毫秒）
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// EmailNotify 邮件通知配置
type EmailNotify struct {
	Enable   bool   `yaml:"enable"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Notify 通知配置
type Notify struct {
	Email EmailNotify `yaml:"email"`
}

type Config struct {
	File string `yaml:"-"`

	Debug       bool    `yaml:"debug"`
	AppDataPath string  `yaml:"app_data_path"`
	Log         Log     `yaml:"log"`
	RPC         RPC     `yaml:"rpc"`
	Signing     Signing `yaml:"signing"`
	Login       Login   `yaml:"login"`
	Notify      Notify  `yaml:"notify"`

	// SentryDSN 崩溃上报 DSN，留空禁用
	SentryDSN string `yaml:"sentry_dsn"`
}

var defaultConfig = Config{
	Debug:       false,
	AppDataPath: ".appdata",
	Log: Log{
		OutPutFolder: "",
		SaveLastLog:  true,
	},
	RPC: RPC{
		Enable: false,
		Bind:   "127.0.0.1:8175",
	},
	Signing: Signing{
		AppKey:    "aae92bc66f3edfab",
		AppSecret: "af125a0d5279fd576c1b4418a3e8276d",
	},
	Login: Login{
		PollIntervalMs: 1500,
	},
}

func NewConfig() *Config {
	config := defaultConfig
	return &config
}

func NewConfigWithBytes(b []byte) (*Config, error) {
	config := defaultConfig
	if err := yaml.Unmarshal(b, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func NewConfigWithFile(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config, err := NewConfigWithBytes(b)
	if err != nil {
		return nil, err
	}
	config.File = configFile
	return config, nil
}

func (c *Config) Verify() error {
	if c == nil {
		return errors.New("config is null")
	}
	if err := c.RPC.verify(); err != nil {
		return err
	}
	if c.AppDataPath == "" {
		return errors.New("app_data_path is empty")
	}
	if c.Signing.AppKey == "" || c.Signing.AppSecret == "" {
		return errors.New("signing app_key/app_secret must not be empty")
	}
	if c.Login.PollIntervalMs <= 0 {
		return errors.New("login poll_interval_ms must be positive")
	}
	if c.Log.OutPutFolder != "" {
		if stat, err := os.Stat(c.Log.OutPutFolder); err != nil || !stat.IsDir() {
			return fmt.Errorf("log output folder %q does not exist", c.Log.OutPutFolder)
		}
	}
	return nil
}

// DatabaseDir 返回 sqlite 数据库所在目录
func (c *Config) DatabaseDir() string {
	return filepath.Join(c.AppDataPath, "db")
}

// Marshal 将配置序列化为 yaml
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var (
	currentConfig   *Config
	currentConfigMu sync.RWMutex
)

// SetCurrentConfig 设置全局配置
func SetCurrentConfig(cfg *Config) {
	currentConfigMu.Lock()
	defer currentConfigMu.Unlock()
	currentConfig = cfg
}

// GetCurrentConfig 获取全局配置，未初始化时返回 nil
func GetCurrentConfig() *Config {
	currentConfigMu.RLock()
	defer currentConfigMu.RUnlock()
	return currentConfig
}

// IsDebug 返回当前是否处于 debug 模式
func IsDebug() bool {
	cfg := GetCurrentConfig()
	return cfg != nil && cfg.Debug
}
