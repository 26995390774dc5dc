package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL 请求地址无法构造成合法 URL
	ErrInvalidURL = errors.New("invalid url")
	// ErrNetwork 传输层失败，一般可以重试
	ErrNetwork = errors.New("network error")
	// ErrInvalidResponse 远端可达但返回了非 200 状态
	ErrInvalidResponse = errors.New("invalid response")
	// ErrDecoding 远端返回 200 但响应体不是合法 JSON
	ErrDecoding = errors.New("malformed response payload")
	// ErrAuthenticationRequired 会话已失效，调用方应清理本地状态并重新登录
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrQRCodeExpired 二维码已过期，本次登录终止
	ErrQRCodeExpired = errors.New("qr code expired")
	// ErrQRCodeScanned 二维码已扫描、等待确认。这是继续轮询的信号，不是失败
	ErrQRCodeScanned = errors.New("qr code scanned, awaiting confirmation")
	// ErrInvalidInput 调用方传入的数据未通过本地校验，尚未发出任何网络请求
	ErrInvalidInput = errors.New("invalid input")
)

// APIError 远端业务层面的拒绝（HTTP 200 但 code 非 0）
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Code, e.Message)
}

func newAPIError(code int64, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// VerificationRequiredError 开播前需要人脸认证。
// URL 指向认证页面，应以二维码形式交给用户，完成后重新尝试开播。
type VerificationRequiredError struct {
	URL string
}

func (e *VerificationRequiredError) Error() string {
	return fmt.Sprintf("face verification required: %s", e.URL)
}
