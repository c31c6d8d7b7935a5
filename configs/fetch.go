package configs

import "time"

// ScalePolicy 图片缩放策略
type ScalePolicy string

const (
	ScaleShrinkOnly ScalePolicy = "shrink" // 只缩小，不放大（默认）
	ScaleAlways     ScalePolicy = "always" // 始终按单元格尺寸缩放
)

const (
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultFetchTimeout = 20 * time.Second
	DefaultSheetName    = "Sheet1"

	// 列宽单位（字符）与行高单位（磅）
	DefaultCellWidth  = 20.0
	DefaultCellHeight = 75.0
)

var (
	fetchTimeout       = DefaultFetchTimeout
	fetchAttempts uint = 1
	userAgent          = DefaultUserAgent
	scalePolicy        = ScaleShrinkOnly
)

// InitFetchTimeout 设置单张图片下载超时
func InitFetchTimeout(d time.Duration) {
	if d > 0 {
		fetchTimeout = d
	}
}

func GetFetchTimeout() time.Duration {
	return fetchTimeout
}

// InitFetchAttempts 设置下载尝试次数，1 表示不重试
func InitFetchAttempts(n uint) {
	if n == 0 {
		n = 1
	}
	fetchAttempts = n
}

func GetFetchAttempts() uint {
	return fetchAttempts
}

func SetUserAgent(ua string) {
	if ua != "" {
		userAgent = ua
	}
}

func GetUserAgent() string {
	return userAgent
}

// InitScalePolicy 设置缩放策略（"shrink"/"always"），未知值回退到 shrink
func InitScalePolicy(p string) {
	switch ScalePolicy(p) {
	case ScaleAlways:
		scalePolicy = ScaleAlways
	default:
		scalePolicy = ScaleShrinkOnly
	}
}

func GetScalePolicy() ScalePolicy {
	return scalePolicy
}
