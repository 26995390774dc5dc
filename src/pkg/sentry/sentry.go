// Package sentry 提供 Sentry 错误监控的封装
// 用于收集程序崩溃日志，同时保护用户隐私（cookie/csrf 绝不能出现在上报数据中）
package sentry

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

var (
	initialized bool
	initMu      sync.RWMutex
)

// 敏感关键字列表，用于过滤上报数据
var sensitiveKeywords = []string{
	"cookie", "token", "password", "passwd", "secret", "key", "auth",
	"credential", "csrf", "bili_jct", "sessdata", "access_token",
	"refresh_token", "stream_key", "rtmp",
}

var sensitiveURLPattern = regexp.MustCompile(`[?&](token|key|secret|password|auth|access_token|session|qrcode_key)[=][^&]*`)

// Init 初始化 Sentry SDK，dsn 留空则禁用
func Init(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		BeforeSend:       beforeSendHook,
		SampleRate:       1.0,
	})
	if err != nil {
		return err
	}

	deviceID := GetAnonymousDeviceID()
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: deviceID})
	})

	initMu.Lock()
	initialized = true
	initMu.Unlock()
	return nil
}

// IsInitialized 返回 Sentry 是否已初始化
func IsInitialized() bool {
	initMu.RLock()
	defer initMu.RUnlock()
	return initialized
}

// Flush 刷新所有待发送事件（程序退出前调用）
func Flush(timeout time.Duration) {
	if !IsInitialized() {
		return
	}
	sentry.Flush(timeout)
}

// RecoverWithContext 用于 goroutine 的 panic 恢复
// 注意：必须先调用 recover()，再检查 Sentry 状态，否则 panic 不会被捕获
func RecoverWithContext(ctx context.Context) {
	err := recover()
	if err == nil {
		return
	}
	if IsInitialized() {
		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		if hub != nil {
			hub.RecoverWithContext(ctx, err)
		}
	}
	// 不重新 panic，让 goroutine 优雅退出
}

// Recover 用于 goroutine 的 panic 恢复（无 context 版本）
func Recover() {
	err := recover()
	if err == nil {
		return
	}
	if IsInitialized() {
		hub := sentry.CurrentHub()
		if hub != nil {
			hub.Recover(err)
		}
	}
}

// CaptureException 捕获异常
func CaptureException(err error) {
	if !IsInitialized() || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// Go 启动一个新的 goroutine 并自动添加 panic 恢复
func Go(f func()) {
	go func() {
		defer Recover()
		f()
	}()
}

// GoWithContext 启动一个新的 goroutine 并自动添加 panic 恢复（带 Context）
func GoWithContext(ctx context.Context, f func(context.Context)) {
	go func() {
		defer RecoverWithContext(ctx)
		f(ctx)
	}()
}

// beforeSendHook 在发送事件前清理敏感数据
func beforeSendHook(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event.Message != "" {
		event.Message = sanitizeString(event.Message)
	}
	for i := range event.Exception {
		if event.Exception[i].Value != "" {
			event.Exception[i].Value = sanitizeString(event.Exception[i].Value)
		}
	}
	event.Extra = sanitizeMap(event.Extra)
	event.Tags = sanitizeTags(event.Tags)
	if event.Request != nil {
		event.Request = sanitizeRequest(event.Request)
	}
	return event
}

func sanitizeString(s string) string {
	result := sensitiveURLPattern.ReplaceAllString(s, "$1=[REDACTED]")
	for _, keyword := range sensitiveKeywords {
		pattern := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(keyword) + `)\s*[=:]\s*[^\s,}"\]]+`)
		result = pattern.ReplaceAllString(result, "$1=[REDACTED]")
	}
	return result
}

func sanitizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	result := make(map[string]interface{})
	for key, value := range m {
		if isSensitiveKey(key) {
			result[key] = "[REDACTED]"
		} else if strVal, ok := value.(string); ok {
			result[key] = sanitizeString(strVal)
		} else if mapVal, ok := value.(map[string]interface{}); ok {
			result[key] = sanitizeMap(mapVal)
		} else {
			result[key] = value
		}
	}
	return result
}

func sanitizeTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	result := make(map[string]string)
	for key, value := range tags {
		if isSensitiveKey(key) {
			result[key] = "[REDACTED]"
		} else {
			result[key] = sanitizeString(value)
		}
	}
	return result
}

func sanitizeRequest(req *sentry.Request) *sentry.Request {
	if req == nil {
		return nil
	}
	if req.URL != "" {
		req.URL = sensitiveURLPattern.ReplaceAllString(req.URL, "$1=[REDACTED]")
	}
	if req.QueryString != "" {
		for _, keyword := range sensitiveKeywords {
			pattern := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(keyword) + `)=([^&]*)`)
			req.QueryString = pattern.ReplaceAllString(req.QueryString, "$1=[REDACTED]")
		}
	}
	if req.Headers != nil {
		for _, header := range []string{"Authorization", "authorization", "Cookie", "cookie"} {
			if _, exists := req.Headers[header]; exists {
				req.Headers[header] = "[REDACTED]"
			}
		}
	}
	if req.Cookies != "" {
		req.Cookies = "[REDACTED]"
	}
	if req.Data != "" {
		req.Data = sanitizeString(req.Data)
	}
	return req
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}
