package downloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpzouying/xlsx-image-embed/errors"
	"github.com/xpzouying/xlsx-image-embed/pkg/imageconv"
)

func TestAcquire_PNG(t *testing.T) {
	srv, _ := newImageServer(t)
	d := newTestDownloader(t)
	p := NewImageProcessor(d, d.convertedPath)

	var stages []Stage
	a, err := p.Acquire(context.Background(), srv.URL+"/a.png", func(s Stage) { stages = append(stages, s) })
	require.NoError(t, err)

	assert.Equal(t, imageconv.FormatPNG, a.Format)
	assert.Equal(t, 8, a.Width)
	assert.Equal(t, 6, a.Height)
	assert.False(t, a.Converted)
	assert.NotEmpty(t, a.Data)
	assert.Equal(t, []Stage{StageFetching}, stages)
}

func TestAcquire_WebPIsNormalized(t *testing.T) {
	srv, _ := newImageServer(t)
	d := newTestDownloader(t)
	p := NewImageProcessor(d, d.convertedPath)

	var stages []Stage
	a, err := p.Acquire(context.Background(), srv.URL+"/b.webp", func(s Stage) { stages = append(stages, s) })
	require.NoError(t, err)

	assert.True(t, a.Converted)
	assert.Equal(t, imageconv.FormatPNG, a.Format)
	assert.Equal(t, 4, a.Width)
	assert.Equal(t, []Stage{StageFetching, StageNormalizing}, stages)

	format, err := imageconv.Detect(a.Data)
	require.NoError(t, err)
	assert.Equal(t, imageconv.FormatPNG, format)

	// 新的任务里，转换结果直接命中缓存，不再下载也不再转换
	p.Reset()
	stages = nil
	again, err := p.Acquire(context.Background(), srv.URL+"/b.webp", func(s Stage) { stages = append(stages, s) })
	require.NoError(t, err)
	assert.Equal(t, a.Path, again.Path)
	assert.Equal(t, []Stage{StageFetching}, stages)
	assert.Equal(t, int64(1), d.Requests())
}

func TestAcquire_DedupWithinRun(t *testing.T) {
	srv, _ := newImageServer(t)
	d := newTestDownloader(t)
	p := NewImageProcessor(d, d.convertedPath)
	ctx := context.Background()

	_, err1 := p.Acquire(ctx, srv.URL+"/missing.png", nil)
	_, err2 := p.Acquire(ctx, srv.URL+"/missing.png", nil)
	assert.True(t, errors.Is(err1, errors.ErrFetch))
	assert.Equal(t, err1, err2)
	assert.Equal(t, int64(1), d.Requests())
}

func TestAcquire_NotAnImage(t *testing.T) {
	d := newTestDownloader(t)
	p := NewImageProcessor(d, d.convertedPath)

	// 伪造一个已缓存的非图片文件
	url := "https://example.invalid/fake.png"
	require.NoError(t, os.WriteFile(filepath.Join(d.savePath, CacheFileName(url)), []byte("<html>not found</html>"), 0644))

	_, err := p.Acquire(context.Background(), url, nil)
	require.Error(t, err)
	assert.Equal(t, errors.KindDecode, errors.KindOf(err))
	assert.Equal(t, int64(0), d.Requests())
}
