package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xpzouying/xlsx-image-embed/configs"
	"github.com/xpzouying/xlsx-image-embed/internal/testimg"
	"github.com/xpzouying/xlsx-image-embed/pkg/embedder"
)

type testEnv struct {
	app    *AppServer
	images *httptest.Server
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	configs.SetWorkDir(dir)
	t.Cleanup(func() { configs.SetWorkDir("") })

	mux := http.NewServeMux()
	mux.HandleFunc("/a.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(testimg.SolidPNG(80, 60, color.NRGBA{R: 255, A: 255}))
	})
	mux.HandleFunc("/missing.png", http.NotFound)
	images := httptest.NewServer(mux)
	t.Cleanup(images.Close)

	svc, err := NewEmbedService()
	require.NoError(t, err)

	return &testEnv{app: NewAppServer(svc), images: images, dir: dir}
}

// writeWorkbook A1 为表头，A2 正常图片，A3 404
func (env *testEnv) writeWorkbook(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellStr("Sheet1", "A1", "图片"))
	require.NoError(t, f.SetCellStr("Sheet1", "A2", env.images.URL+"/a.png"))
	require.NoError(t, f.SetCellStr("Sheet1", "A3", env.images.URL+"/missing.png"))
	require.NoError(t, f.SaveAs(path))
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.app.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, data any) {
	t.Helper()

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data map[string]any
	decodeData(t, w, &data)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "xlsx-image-embed", data["service"])
}

func TestClassifyHandler(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		value string
		isImg bool
		ext   string
	}{
		{"https://example.com/a.webp", true, "webp"},
		{"http://cdn.example.com/img?id=1&fmt=jpeg", true, "jpg"},
		{"ftp://example.com/a.png", false, ""},
		{"普通文本", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/classify", ClassifyRequest{Value: tt.value})
			require.Equal(t, http.StatusOK, w.Code)

			var got ClassifyResponse
			decodeData(t, w, &got)
			assert.Equal(t, tt.isImg, got.IsImageURL)
			assert.Equal(t, tt.ext, got.Extension)
		})
	}
}

func TestEmbedHandler_Sync(t *testing.T) {
	env := newTestEnv(t)

	input := filepath.Join(env.dir, "goods.xlsx")
	env.writeWorkbook(t, input)

	w := env.do(t, http.MethodPost, "/api/v1/embed", RunRequest{InputPath: input})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RunResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "output_embedded_goods.xlsx", resp.OutputName)
	assert.Equal(t, "/api/v1/outputs/output_embedded_goods.xlsx", resp.DownloadURL)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 2, resp.Result.Total)
	assert.Equal(t, 1, resp.Result.SuccessCount)
	assert.Equal(t, 1, resp.Result.FailureCount)
	require.Len(t, resp.Result.Failures, 1)
	assert.Equal(t, "A3", resp.Result.Failures[0].Cell.Name())

	// 下载输出文件
	w = env.do(t, http.MethodGet, resp.DownloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "output_embedded_goods.xlsx")

	out, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer out.Close()
	pics, err := out.GetPictures("Sheet1", "A2")
	require.NoError(t, err)
	assert.Len(t, pics, 1)

	// 运行报告
	w = env.do(t, http.MethodGet, resp.ReportURL, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result embedder.RunResult
	decodeData(t, w, &result)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, input, result.InputPath)
}

func TestEmbedHandler_Errors(t *testing.T) {
	env := newTestEnv(t)

	input := filepath.Join(env.dir, "goods.xlsx")
	env.writeWorkbook(t, input)

	tests := []struct {
		name string
		body any
		code int
		want string
	}{
		{"missing input_path", map[string]any{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"input not found", RunRequest{InputPath: filepath.Join(env.dir, "nope.xlsx")}, http.StatusBadRequest, "INPUT_UNREADABLE"},
		{"sheet not found", RunRequest{InputPath: input, SheetName: "不存在"}, http.StatusBadRequest, "INPUT_UNREADABLE"},
		{"bad webhook", RunRequest{InputPath: input, Webhook: "ftp://example.com"}, http.StatusBadRequest, "INVALID_WEBHOOK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/embed", tt.body)
			assert.Equal(t, tt.code, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Code)
		})
	}
}

func TestEmbedHandler_Webhook(t *testing.T) {
	env := newTestEnv(t)

	input := filepath.Join(env.dir, "goods.xlsx")
	env.writeWorkbook(t, input)

	received := make(chan WebhookPayload, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			received <- payload
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	w := env.do(t, http.MethodPost, "/api/v1/embed", RunRequest{InputPath: input, Webhook: hook.URL})
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case payload := <-received:
		assert.Equal(t, EventRunCompleted, payload.Event)
		assert.Equal(t, input, payload.Input)
		assert.NotZero(t, payload.Timestamp)
		require.NotNil(t, payload.Data)
		assert.Equal(t, 1, payload.Data.Result.SuccessCount)
	case <-time.After(30 * time.Second):
		t.Fatal("webhook not received")
	}
}

func TestUploadHandler(t *testing.T) {
	env := newTestEnv(t)

	src := filepath.Join(t.TempDir(), "upload.xlsx")
	env.writeWorkbook(t, src)
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	upload := func(filename string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("annotate_failures", "true"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/embed/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		env.app.router.ServeHTTP(w, req)
		return w
	}

	w := upload("upload.xlsx")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RunResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "output_embedded_upload.xlsx", resp.OutputName)
	assert.FileExists(t, filepath.Join(configs.GetUploadsPath(), "upload.xlsx"))

	out, err := excelize.OpenFile(resp.Result.OutputPath)
	require.NoError(t, err)
	defer out.Close()
	comments, err := out.GetComments("Sheet1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "A3", comments[0].Cell)

	w = upload("goods.csv")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "INVALID_FILE"))
}

func TestRunUpload_SameNameConcurrent(t *testing.T) {
	env := newTestEnv(t)

	// one.xlsx 一个图片链接，two.xlsx 两个
	one := filepath.Join(t.TempDir(), "one.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellStr("Sheet1", "A1", env.images.URL+"/a.png"))
	require.NoError(t, f.SaveAs(one))
	require.NoError(t, f.Close())
	two := filepath.Join(t.TempDir(), "two.xlsx")
	env.writeWorkbook(t, two)

	contents := make(map[int][]byte)
	for total, p := range map[int]string{1: one, 2: two} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		contents[total] = data
	}

	type outcome struct {
		want int
		got  int
		err  error
	}
	results := make(chan outcome, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		want := i%2 + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			save := func(_ *multipart.FileHeader, dst string) error {
				return os.WriteFile(dst, contents[want], 0644)
			}
			resp, err := env.app.embedService.RunUpload(context.Background(),
				&multipart.FileHeader{Filename: "same.xlsx"}, save, &RunRequest{})
			if err != nil {
				results <- outcome{want: want, err: err}
				return
			}
			results <- outcome{want: want, got: resp.Result.Total}
		}()
	}
	wg.Wait()
	close(results)

	for r := range results {
		require.NoError(t, r.err)
		assert.Equal(t, r.want, r.got)
	}
}

func TestDownloadHandler_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/outputs/missing.xlsx", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/reports/missing.xlsx", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := env.app.embedService.OutputFile("../secret.xlsx")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestMCPHandlers(t *testing.T) {
	env := newTestEnv(t)

	result := env.app.handleClassifyCell("https://example.com/a.png")
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "是图片链接")

	result = env.app.handleEmbedImages(t.Context(), &RunRequest{})
	assert.True(t, result.IsError)

	input := filepath.Join(env.dir, "goods.xlsx")
	env.writeWorkbook(t, input)

	result = env.app.handleEmbedImages(t.Context(), &RunRequest{InputPath: input})
	require.False(t, result.IsError, result.Content[0].Text)
	assert.Contains(t, result.Content[0].Text, "成功插入 1 张图片，失败 1 张")

	result = env.app.handleGetRunReport("output_embedded_goods.xlsx")
	require.False(t, result.IsError, result.Content[0].Text)
	assert.Contains(t, result.Content[0].Text, `"cell": "A3"`)

	result = env.app.handleGetRunReport("missing.xlsx")
	assert.True(t, result.IsError)

	mcpResult := convertToMCPResult(result)
	assert.True(t, mcpResult.IsError)
	require.Len(t, mcpResult.Content, 1)
	text, ok := mcpResult.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "获取运行报告失败")
}
