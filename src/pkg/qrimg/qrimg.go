// Package qrimg 把登录二维码和人脸认证链接渲染成可展示的形式
package qrimg

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Renderer 二维码渲染器
type Renderer interface {
	// RenderTerminal 渲染为可直接打印到终端的字符画
	RenderTerminal(content string) (string, error)
	// RenderPNG 渲染为 size x size 像素的 PNG
	RenderPNG(content string, size int) ([]byte, error)
}

type qrcodeRenderer struct{}

// New 返回默认渲染器
func New() Renderer {
	return qrcodeRenderer{}
}

func (qrcodeRenderer) RenderTerminal(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}
	bitmap := q.Bitmap()
	var b strings.Builder
	for _, row := range bitmap {
		for _, black := range row {
			// 终端里普遍是深色背景，反色渲染扫描成功率更高
			if black {
				b.WriteString("  ")
			} else {
				b.WriteString("██")
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (qrcodeRenderer) RenderPNG(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}

// NullRenderer 什么都不渲染，给无界面环境和测试用
type NullRenderer struct{}

func (NullRenderer) RenderTerminal(string) (string, error) { return "", nil }
func (NullRenderer) RenderPNG(string, int) ([]byte, error) { return nil, nil }
