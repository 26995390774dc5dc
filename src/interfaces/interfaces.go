package interfaces

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

// Module 可以被统一启动和关闭的长生命周期组件（如状态服务器）
type Module interface {
	Start(ctx context.Context) error
	Close(ctx context.Context)
}
