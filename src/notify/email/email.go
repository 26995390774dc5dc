package email

import (
	"errors"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/bililink-go/bililink-go/src/configs"
)

// SendEmail 按配置中的 SMTP 参数发送一封纯文本邮件
func SendEmail(subject, body string) error {
	cfg := configs.GetCurrentConfig()
	if cfg == nil {
		return errors.New("configuration is nil")
	}
	e := cfg.Notify.Email
	if e.SMTPHost == "" || e.SMTPPort == 0 {
		return errors.New("smtp host/port not configured")
	}
	if e.To == "" {
		return errors.New("no recipient configured")
	}

	from := e.From
	if from == "" {
		from = e.Username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", strings.Split(e.To, ",")...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(e.SMTPHost, e.SMTPPort, e.Username, e.Password)
	return d.DialAndSend(m)
}
