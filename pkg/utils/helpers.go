package utils

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// NowISO 返回当前 UTC 时间的 ISO8601 字符串。
// 所有持久化记录的时间戳统一走这里，日投递上限依赖其 YYYY-MM-DD 前缀。
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// TodayUTC 返回当前 UTC 日期的 YYYY-MM-DD 字符串
func TodayUTC() string {
	return time.Now().UTC().Format("2006-01-02")
}

// StringPtr 返回字符串的指针
func StringPtr(s string) *string {
	return &s
}

// IntPtr 返回 int 的指针
func IntPtr(i int) *int {
	return &i
}

// Float64Ptr 返回 float64 的指针
func Float64Ptr(f float64) *float64 {
	return &f
}

// BoolPtr 返回 bool 的指针
func BoolPtr(b bool) *bool {
	return &b
}

// CalculateMD5 计算字节切片的 MD5 摘要
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
