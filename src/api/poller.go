package api

import (
	"context"
	"errors"
	"time"

	"github.com/bililink-go/bililink-go/src/metrics"
)

// WaitForQRLogin 按固定间隔轮询二维码状态直到出现终态：
// 登录成功返回 nil，二维码过期或远端/网络错误原样返回，
// ctx 取消时返回 ctx.Err()。没有额外的整体超时，
// 过期由服务端通过 86038 判定。
//
// onScanned 在首次观察到"已扫描待确认"时回调一次，可以为 nil。
func (c *Client) WaitForQRLogin(ctx context.Context, ticket *QRLoginTicket, onScanned func()) error {
	interval := c.pollInterval
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	scanned := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		metrics.LoginPolls.Inc()
		done, err := c.PollQRLogin(ticket)
		switch {
		case err == nil && done:
			return nil
		case err == nil:
			// 还没扫，下个周期再查
		case errors.Is(err, ErrQRCodeScanned):
			if !scanned {
				scanned = true
				if onScanned != nil {
					onScanned()
				}
			}
		default:
			return err
		}
	}
}
