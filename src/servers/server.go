package servers

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bililink-go/bililink-go/src/configs"
	"github.com/bililink-go/bililink-go/src/instance"
	applog "github.com/bililink-go/bililink-go/src/log"
)

// Server 状态服务器，给外部 UI 暴露会话状态查询、开播控制和 SSE 事件流
type Server struct {
	server *http.Server
}

func initMux(ctx context.Context) *mux.Router {
	m := mux.NewRouter()
	m.Use(log)

	m.HandleFunc("/api/info", getAppInfo).Methods("GET")
	m.HandleFunc("/api/state", getState).Methods("GET")
	m.HandleFunc("/api/partitions", getPartitions).Methods("GET")
	m.HandleFunc("/api/room", updateRoom).Methods("PUT")
	m.HandleFunc("/api/broadcast/{action}", broadcastAction).Methods("POST")
	m.HandleFunc("/api/danmaku", sendDanmaku).Methods("POST")
	m.HandleFunc("/api/logout", logout).Methods("POST")
	m.HandleFunc("/api/avatar", getAvatar).Methods("GET")
	m.HandleFunc("/api/events", sseHandler).Methods("GET")
	m.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return m
}

func NewServer(ctx context.Context) *Server {
	config := configs.GetCurrentConfig()
	httpServer := &http.Server{
		Addr:    config.RPC.Bind,
		Handler: initMux(ctx),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	inst := instance.GetInstance(ctx)
	server := &Server{server: httpServer}
	inst.Server = server
	return server
}

func (s *Server) Start(ctx context.Context) error {
	inst := instance.GetInstance(ctx)
	inst.WaitGroup.Add(1)
	logger := applog.GetLogger()
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("状态服务器异常退出")
		}
	}()
	logger.Infof("状态服务器已启动，监听 %s", s.server.Addr)
	return nil
}

func (s *Server) Close(ctx context.Context) {
	inst := instance.GetInstance(ctx)
	defer inst.WaitGroup.Done()

	GetSSEHub().Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		applog.GetLogger().WithError(err).Warn("状态服务器关闭失败")
	}
	applog.GetLogger().Info("状态服务器已关闭")
}
