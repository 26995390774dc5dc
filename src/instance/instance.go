package instance

import (
	"context"
	"sync"

	"github.com/bluele/gcache"

	"github.com/bililink-go/bililink-go/src/api"
	"github.com/bililink-go/bililink-go/src/interfaces"
)

// Instance 进程级依赖的集合，通过 context 传给各个模块
type Instance struct {
	WaitGroup sync.WaitGroup
	Cache     gcache.Cache
	Client    *api.Client
	Server    interfaces.Module
}

type instanceKey string

// Key context 中存放 *Instance 的键
const Key = instanceKey("instance")

// GetInstance 从 context 中取出 Instance，取不到返回 nil
func GetInstance(ctx context.Context) *Instance {
	if inst, ok := ctx.Value(Key).(*Instance); ok {
		return inst
	}
	return nil
}
