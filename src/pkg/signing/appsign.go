package signing

// AppSign 对参数做 appkey/appsec 签名：注入 appkey，按 key 排序拼接后
// 追加 appsec 取 MD5，结果附加为 sign 字段
func AppSign(params map[string]string, appKey, appSec string) map[string]string {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["appkey"] = appKey
	signed["sign"] = md5Hex(SortedQuery(signed) + appSec)
	return signed
}
