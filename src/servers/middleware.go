package servers

import (
	"net/http"
	"time"

	applog "github.com/bililink-go/bililink-go/src/log"
)

// log 记录每次控制接口调用及耗时，便于排查 UI 侧的操作
func log(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, r)
		applog.GetLogger().WithFields(map[string]any{
			"method": r.Method,
			"path":   r.RequestURI,
			"remote": r.RemoteAddr,
			"cost":   time.Since(start).String(),
		}).Debug("控制接口请求")
	})
}
