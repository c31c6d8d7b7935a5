package downloader

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/xlsx-image-embed/configs"
	"github.com/xpzouying/xlsx-image-embed/errors"
	"github.com/xpzouying/xlsx-image-embed/pkg/imageconv"
)

// 缓存文件名里只保留这些字符
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.]`)

const maxSegmentLen = 80

// StatusError 非 2xx 响应
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download failed with status %d for URL: %s", e.Code, e.URL)
}

// ImageDownloader 图片下载器，下载结果按 URL 缓存在本地目录
type ImageDownloader struct {
	savePath      string
	convertedPath string
	httpClient    *http.Client
	userAgent     string
	attempts      uint
	retryDelay    time.Duration

	requests atomic.Int64
}

// Option 下载器配置项
type Option func(*ImageDownloader)

// WithConvertedPath 设置 webp 转换结果目录，命中时直接返回转换后的 png
func WithConvertedPath(dir string) Option {
	return func(d *ImageDownloader) {
		d.convertedPath = dir
	}
}

// WithTimeout 设置单次请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(d *ImageDownloader) {
		if timeout > 0 {
			d.httpClient.Timeout = timeout
		}
	}
}

// WithRetry 设置下载尝试次数，1 表示不重试
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(d *ImageDownloader) {
		if attempts > 0 {
			d.attempts = attempts
		}
		d.retryDelay = delay
	}
}

// WithUserAgent 自定义 User-Agent
func WithUserAgent(ua string) Option {
	return func(d *ImageDownloader) {
		if ua != "" {
			d.userAgent = ua
		}
	}
}

// WithHTTPClient 替换默认的 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(d *ImageDownloader) {
		if c != nil {
			d.httpClient = c
		}
	}
}

// NewImageDownloader 创建图片下载器
func NewImageDownloader(savePath string, opts ...Option) (*ImageDownloader, error) {
	// 确保保存目录存在
	if err := os.MkdirAll(savePath, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create save path %s", savePath)
	}

	d := &ImageDownloader{
		savePath: savePath,
		httpClient: &http.Client{
			Timeout: configs.GetFetchTimeout(),
		},
		userAgent:  configs.GetUserAgent(),
		attempts:   configs.GetFetchAttempts(),
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Requests 已发出的网络请求次数
func (d *ImageDownloader) Requests() int64 {
	return d.requests.Load()
}

// Fetch 下载图片，返回本地文件路径。
// 本地已有缓存时不会发起请求，缓存内容也不会重新校验。
func (d *ImageDownloader) Fetch(ctx context.Context, imageURL string) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if !isValidURL(imageURL) {
		return "", errors.Wrapf(errors.ErrFetch, "invalid image URL format: %s", imageURL)
	}

	fileName := CacheFileName(imageURL)
	filePath := filepath.Join(d.savePath, fileName)

	// 之前转换过的 webp 优先
	if d.convertedPath != "" {
		converted := imageconv.ConvertedPath(d.convertedPath, filePath)
		if fileExists(converted) {
			logrus.Debugf("命中转换缓存: %s", converted)
			return converted, nil
		}
	}

	// 如果文件已存在，直接返回路径
	if fileExists(filePath) {
		logrus.Debugf("命中下载缓存: %s", filePath)
		return filePath, nil
	}

	data, err := retry.DoWithData(
		func() ([]byte, error) {
			return d.download(ctx, imageURL)
		},
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.Delay(d.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < d.attempts {
				logrus.Warnf("下载失败，准备第 %d 次重试 %s: %v", n+1, imageURL, err)
			}
		}),
	)
	if err != nil {
		if !errors.Is(err, errors.ErrFetch) {
			err = errors.Mark(errors.ErrFetch, err)
		}
		return "", err
	}

	if err := writeAtomic(filePath, data); err != nil {
		return "", errors.Mark(errors.ErrFetch, err)
	}

	logrus.Debugf("图片已下载: %s -> %s (%d bytes)", imageURL, filePath, len(data))
	return filePath, nil
}

// download 发起一次 GET 请求并读取完整响应体
func (d *ImageDownloader) download(ctx context.Context, imageURL string) ([]byte, error) {
	// 创建请求并设置请求头
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(errors.Mark(errors.ErrFetch, err))
	}

	// 设置 User-Agent，模拟浏览器请求
	req.Header.Set("User-Agent", d.userAgent)

	// 设置 Referer，使用图片 URL 的域名
	if parsedURL, _ := url.Parse(imageURL); parsedURL != nil {
		req.Header.Set("Referer", fmt.Sprintf("%s://%s/", parsedURL.Scheme, parsedURL.Host))
	}

	d.requests.Add(1)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.ErrFetch, errors.Wrapf(err, "failed to download image from %s", imageURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Mark(errors.ErrFetch, &StatusError{Code: resp.StatusCode, URL: imageURL})
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.ErrFetch, errors.Wrap(err, "failed to read image data"))
	}
	return data, nil
}

// isRetryable 只重试网络错误和 5xx
func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}

// CacheFileName 由 URL 生成确定性的缓存文件名：
// sha256 前 12 位 + "_" + 路径最后一段（缺扩展名时补上猜测的扩展名）
func CacheFileName(imageURL string) string {
	segment := ""
	if u, err := url.Parse(imageURL); err == nil {
		segment = path.Base(u.Path)
	}
	if segment == "" || segment == "." || segment == "/" {
		segment = "image"
	}

	ext := path.Ext(segment)
	if !isImageExt(ext) {
		ext = "." + GuessExtension(imageURL)
		segment += ext
	}

	segment = unsafeNameChars.ReplaceAllString(segment, "_")
	if len(segment) > maxSegmentLen {
		segment = segment[len(segment)-maxSegmentLen:]
	}

	hash := sha256.Sum256([]byte(imageURL))
	return fmt.Sprintf("%x_%s", hash[:6], segment)
}

// isValidURL 检查 URL 是否为带 host 的 http/https 地址
func isValidURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsedURL.Scheme != "" && parsedURL.Host != ""
}

// writeAtomic 先写临时文件再重命名，避免留下半截缓存
func writeAtomic(filePath string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*.part")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to save image")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to save image")
	}
	return os.Rename(tmp.Name(), filePath)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
