package api

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hr3lxphr6j/requests"
	"github.com/tidwall/gjson"

	"github.com/bililink-go/bililink-go/src/metrics"
)

// defaultTimeout 单次请求的整体超时（连接 + 响应）
const defaultTimeout = 10 * time.Second

// executor 是所有远端调用的唯一出口，统一超时、请求头、
// 表单编码和错误归类。业务层只关心 gjson 结果。
type executor struct {
	session *requests.Session
	client  *http.Client
}

func newExecutor(client *http.Client) *executor {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &executor{
		session: requests.NewSession(client),
		client:  client,
	}
}

// reset 丢弃底层会话，登出后调用，确保连接层不残留任何登录态
func (e *executor) reset() {
	e.session = requests.NewSession(e.client)
}

// apiRequest 一次远端调用的全部输入。cookies 手工序列化进单个
// Cookie 头，不走 cookie jar，会话状态始终由上层显式持有。
type apiRequest struct {
	op      string
	method  string
	url     string
	headers map[string]string
	cookies []Cookie
	form    map[string]string
}

func (e *executor) do(req apiRequest) (gjson.Result, *http.Response, error) {
	metrics.APIRequests.WithLabelValues(req.op).Inc()

	if u, err := url.Parse(req.url); err != nil || u.Scheme == "" || u.Host == "" {
		metrics.APIFailures.WithLabelValues(req.op, "url").Inc()
		return gjson.Result{}, nil, fmt.Errorf("%w: %s: %q", ErrInvalidURL, req.op, req.url)
	}

	headers := make(map[string]interface{}, len(req.headers)+1)
	for k, v := range req.headers {
		headers[k] = v
	}
	if len(req.cookies) > 0 {
		headers["Cookie"] = cookieHeader(req.cookies)
	}
	opts := make([]requests.RequestOption, 0, 2)
	if len(headers) > 0 {
		opts = append(opts, requests.Headers(headers))
	}

	var (
		resp *requests.Response
		err  error
	)
	switch req.method {
	case http.MethodGet:
		resp, err = e.session.Get(req.url, opts...)
	case http.MethodPost:
		opts = append(opts, requests.Body(strings.NewReader(encodeForm(req.form))))
		resp, err = e.session.Post(req.url, opts...)
	default:
		return gjson.Result{}, nil, fmt.Errorf("%w: unsupported method %s", ErrInvalidInput, req.method)
	}
	if err != nil {
		metrics.APIFailures.WithLabelValues(req.op, "network").Inc()
		return gjson.Result{}, nil, fmt.Errorf("%w: %s: %v", ErrNetwork, req.op, err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.APIFailures.WithLabelValues(req.op, "status").Inc()
		return gjson.Result{}, resp.Response, fmt.Errorf("%w: %s: status %d", ErrInvalidResponse, req.op, resp.StatusCode)
	}
	body, err := resp.Bytes()
	if err != nil {
		metrics.APIFailures.WithLabelValues(req.op, "network").Inc()
		return gjson.Result{}, resp.Response, fmt.Errorf("%w: %s: %v", ErrNetwork, req.op, err)
	}
	if !gjson.ValidBytes(body) {
		metrics.APIFailures.WithLabelValues(req.op, "decode").Inc()
		return gjson.Result{}, resp.Response, fmt.Errorf("%w: %s", ErrDecoding, req.op)
	}
	return gjson.ParseBytes(body), resp.Response, nil
}

// encodeForm 将表单编码为 application/x-www-form-urlencoded。
// 键排序只为让输出可预期，远端不关心字段顺序。
func encodeForm(form map[string]string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+url.QueryEscape(form[k]))
	}
	return strings.Join(parts, "&")
}
