package servers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bililink-go/bililink-go/src/api"
	"github.com/bililink-go/bililink-go/src/consts"
	"github.com/bililink-go/bililink-go/src/instance"
	"github.com/bililink-go/bililink-go/src/pkg/avatarcache"
)

type commonResp struct {
	ErrNo  int         `json:"err_no"`
	ErrMsg string      `json:"err_msg"`
	Data   interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJsonWithStatusCode(w, http.StatusOK, data)
}

func writeJsonWithStatusCode(w http.ResponseWriter, code int, data interface{}) {
	b, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}

// writeError 把客户端错误按类别映射到 HTTP 状态码
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, api.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, api.ErrAuthenticationRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, api.ErrNetwork):
		status = http.StatusBadGateway
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		status = http.StatusBadRequest
	}
	writeJsonWithStatusCode(w, status, commonResp{
		ErrNo:  status,
		ErrMsg: err.Error(),
	})
}

func getClient(r *http.Request) *api.Client {
	inst := instance.GetInstance(r.Context())
	if inst == nil {
		return nil
	}
	return inst.Client
}

func getAppInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, consts.GetAppInfo())
}

func getState(w http.ResponseWriter, r *http.Request) {
	client := getClient(r)
	if client == nil {
		writeJsonWithStatusCode(w, http.StatusServiceUnavailable, commonResp{
			ErrNo:  http.StatusServiceUnavailable,
			ErrMsg: "client not initialized",
		})
		return
	}
	writeJSON(w, client.Snapshot())
}

func getPartitions(w http.ResponseWriter, r *http.Request) {
	client := getClient(r)
	if client == nil {
		writeError(w, errors.New("client not initialized"))
		return
	}
	partitions, err := client.ListPartitions()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, partitions)
}

func updateRoom(w http.ResponseWriter, r *http.Request) {
	client := getClient(r)
	if client == nil {
		writeError(w, errors.New("client not initialized"))
		return
	}
	var body struct {
		Title  string `json:"title"`
		AreaID int64  `json:"area_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", api.ErrInvalidInput, err))
		return
	}
	if body.Title != "" {
		if err := client.UpdateTitle(body.Title); err != nil {
			writeError(w, err)
			return
		}
	}
	if body.AreaID > 0 {
		if err := client.UpdatePartition(body.AreaID); err != nil {
			writeError(w, err)
			return
		}
	}
	// 修改不回写本地缓存，重新拉一次给调用方最新值
	info, err := client.FetchRoomInfo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, info)
}

func broadcastAction(w http.ResponseWriter, r *http.Request) {
	client := getClient(r)
	if client == nil {
		writeError(w, errors.New("client not initialized"))
		return
	}
	switch mux.Vars(r)["action"] {
	case "start":
		var body struct {
			Title  string `json:"title"`
			AreaID int64  `json:"area_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, fmt.Errorf("%w: %v", api.ErrInvalidInput, err))
			return
		}
		target, err := client.StartBroadcast(body.Title, body.AreaID)
		if err != nil {
			var verify *api.VerificationRequiredError
			if errors.As(err, &verify) {
				writeJsonWithStatusCode(w, http.StatusForbidden, commonResp{
					ErrNo:  http.StatusForbidden,
					ErrMsg: "face verification required",
					Data:   map[string]string{"url": verify.URL},
				})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, target)
	case "stop":
		if err := client.StopBroadcast(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, commonResp{Data: "ok"})
	default:
		writeJsonWithStatusCode(w, http.StatusBadRequest, commonResp{
			ErrNo:  http.StatusBadRequest,
			ErrMsg: fmt.Sprintf("invalid Action: %s", mux.Vars(r)["action"]),
		})
	}
}

func sendDanmaku(w http.ResponseWriter, r *http.Request) {
	client := getClient(r)
	if client == nil {
		writeError(w, errors.New("client not initialized"))
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", api.ErrInvalidInput, err))
		return
	}
	if err := client.SendChatMessage(body.Message); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, commonResp{Data: "ok"})
}

var avatars = avatarcache.New(64)

// getAvatar 返回当前登录用户的头像，内容经过本地缓存
func getAvatar(w http.ResponseWriter, r *http.Request) {
	client := getClient(r)
	if client == nil {
		writeError(w, errors.New("client not initialized"))
		return
	}
	snap := client.Snapshot()
	if snap.Profile == nil || snap.Profile.Avatar == "" {
		writeJsonWithStatusCode(w, http.StatusNotFound, commonResp{
			ErrNo:  http.StatusNotFound,
			ErrMsg: "no avatar available",
		})
		return
	}
	img, err := avatars.Get(snap.Profile.Avatar)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(img))
	w.Write(img)
}

func logout(w http.ResponseWriter, r *http.Request) {
	client := getClient(r)
	if client == nil {
		writeError(w, errors.New("client not initialized"))
		return
	}
	client.Logout()
	writeJSON(w, commonResp{Data: "ok"})
}
