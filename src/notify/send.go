package notify

import (
	"context"
	"fmt"

	"github.com/bililink-go/bililink-go/src/configs"
	"github.com/bililink-go/bililink-go/src/consts"
	blog "github.com/bililink-go/bililink-go/src/log"
	"github.com/bililink-go/bililink-go/src/notify/email"
)

// SendNotification 发送统一通知函数
// 检测用户是否开启了email通知服务，开启时发送开播/下播通知
// 参数: ctx(context上下文), userName(主播姓名), roomID(直播间号), status(consts.BroadcastStatusStart/Stop)
func SendNotification(ctx context.Context, userName, roomID, status string) error {
	cfg := configs.GetCurrentConfig()
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var messageStatus string
	switch status {
	case consts.BroadcastStatusStart:
		messageStatus = "已开始直播"
	case consts.BroadcastStatusStop:
		messageStatus = "已结束直播"
	default:
		messageStatus = "直播状态未知"
	}

	hostInfo := fmt.Sprintf("%s,%s", userName, messageStatus)
	liveURL := fmt.Sprintf("https://live.bilibili.com/%s", roomID)

	if cfg.Notify.Email.Enable {
		emailSubject := fmt.Sprintf("%s - %s", hostInfo, consts.AppName)
		emailBody := fmt.Sprintf("主播：%s\n直播间：%s\n直播地址：%s", hostInfo, roomID, liveURL)
		if err := email.SendEmail(emailSubject, emailBody); err != nil {
			blog.GetLogger().WithError(err).Error("Failed to send email")
			return err
		}
	}
	return nil
}

// SendSessionInvalidNotification 本地保存的登录凭证失效时提醒用户重新登录
func SendSessionInvalidNotification(ctx context.Context, userName string) {
	cfg := configs.GetCurrentConfig()
	if cfg == nil || !cfg.Notify.Email.Enable {
		return
	}
	subject := fmt.Sprintf("%s - 登录已失效", consts.AppName)
	body := fmt.Sprintf("账号 %s 的登录凭证已失效，请重新扫码登录。", userName)
	if err := email.SendEmail(subject, body); err != nil {
		blog.GetLogger().WithError(err).Error("Failed to send email")
	}
}
