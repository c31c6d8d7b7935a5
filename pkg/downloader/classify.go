package downloader

import (
	"net/url"
	"path"
	"strings"
)

// 可识别的图片扩展名关键字，只要 URL（小写）中包含其一即视为图片链接
var imageExtTokens = []string{"jpg", "jpeg", "png", "webp", "gif", "bmp", "svg"}

// IsImageURL 判断单元格文本是否为可下载的图片链接：
// http:// 或 https:// 开头，且包含图片扩展名关键字
func IsImageURL(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}

	lower := strings.ToLower(v)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	for _, token := range imageExtTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// IsImageCell 对任意类型的单元格值做判断，非字符串一律返回 false
func IsImageCell(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return IsImageURL(s)
}

// GuessExtension 从 URL 文本猜测图片扩展名（不带点）。
// 优先看路径最后一段，其次整个 URL，都没有时返回 jpg。
func GuessExtension(rawURL string) string {
	lower := strings.ToLower(rawURL)

	candidates := []string{}
	if u, err := url.Parse(lower); err == nil {
		candidates = append(candidates, path.Base(u.Path))
	}
	candidates = append(candidates, lower)

	for _, c := range candidates {
		for _, token := range []string{"webp", "png", "jpeg", "jpg", "gif", "bmp", "svg"} {
			if strings.Contains(c, token) {
				if token == "jpeg" {
					return "jpg"
				}
				return token
			}
		}
	}
	return "jpg"
}

func isImageExt(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, token := range imageExtTokens {
		if ext == token {
			return true
		}
	}
	return false
}
