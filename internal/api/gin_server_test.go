package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"codefusion/internal/code_converter"
	"codefusion/internal/code_reviewer"
	"codefusion/internal/services"
	"codefusion/internal/third_party/gemini"
	"codefusion/internal/validator"
	"codefusion/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const mainCandidate = `{"candidates":[{"content":{"parts":[{"text":"int main() {\nprintf(\"hi\");\nreturn 0;\n}"}]}}]}`

// fakeModel stands in for the generateContent endpoint and records prompts.
type fakeModel struct {
	mu      sync.Mutex
	body    string
	prompts []string
	server  *httptest.Server
}

func newFakeModel(t *testing.T, body string) *fakeModel {
	t.Helper()
	m := &fakeModel{body: body}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			m.mu.Lock()
			m.prompts = append(m.prompts, req.Contents[0].Parts[0].Text)
			m.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, m.body)
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *fakeModel) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

type fakeProvider struct {
	text   string
	chunks []string
	err    error
	// block holds StreamCompletion open until its context ends
	block bool
}

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return f.text, f.err
}

func (f *fakeProvider) StreamCompletion(ctx context.Context, systemPrompt, prompt string, onChunk func(string) error) error {
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

type testOptions struct {
	modelBody  string
	provider   *fakeProvider
	validator  validator.Validator
	hubEnabled bool
	maxBody    int64
}

func newTestServer(t *testing.T, opts testOptions) (*GinServer, *fakeModel) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	if opts.modelBody == "" {
		opts.modelBody = mainCandidate
	}
	if opts.provider == nil {
		opts.provider = &fakeProvider{text: "review"}
	}
	if opts.maxBody == 0 {
		opts.maxBody = 1 << 20
	}
	model := newFakeModel(t, opts.modelBody)

	convCfg := types.ConverterConfig{Timeout: 5 * time.Second, Temperature: 0.5, MaxOutputTokens: 1024}
	client := gemini.NewContentClient(types.GeminiConfig{
		APIKey:       "test-key",
		BaseURL:      model.server.URL,
		ConvertModel: "gemini-2.0-flash",
	}, convCfg, logger)

	svc := services.NewServices(
		code_converter.NewCodeConverterService(logger, client, convCfg),
		code_reviewer.NewCodeReviewerService(logger, opts.provider, types.ReviewConfig{Timeout: 5 * time.Second}),
		opts.validator,
	)

	srv := NewGinServer(logger, types.ServerConfig{
		HubEnabled:         opts.hubEnabled,
		MaxUploadBytes:     opts.maxBody,
		CORSAllowedOrigins: []string{"*"},
	}, svc)
	t.Cleanup(srv.Close)
	return srv, model
}

func serve(srv *GinServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rr, req)
	return rr
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, fields map[string]string, filename, contents string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, contents)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestConvert_MissingFields(t *testing.T) {
	srv, model := newTestServer(t, testOptions{hubEnabled: true})

	cases := map[string]url.Values{
		"no code":        {"source_lang": {"python"}, "target_lang": {"c"}},
		"no source_lang": {"target_lang": {"c"}, "code": {"print(1)"}},
		"no target_lang": {"source_lang": {"python"}, "code": {"print(1)"}},
		"all empty":      {"source_lang": {""}, "target_lang": {""}, "code": {""}},
		"nothing":        {},
	}

	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			rr := serve(srv, formRequest(values))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, msgMissingFields, errorBody(t, rr))
		})
	}
	assert.Empty(t, model.calls())
}

func TestConvert_BodyTooLarge(t *testing.T) {
	srv, model := newTestServer(t, testOptions{hubEnabled: true, maxBody: 64})

	t.Run("form", func(t *testing.T) {
		rr := serve(srv, formRequest(url.Values{
			"source_lang": {"python"},
			"target_lang": {"c"},
			"code":        {strings.Repeat("x", 256)},
		}))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Equal(t, msgBodyTooLarge, errorBody(t, rr))
	})

	t.Run("multipart", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{"source_lang": "python", "target_lang": "c"}, "big.py", strings.Repeat("x", 256))
		rr := serve(srv, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Equal(t, msgBodyTooLarge, errorBody(t, rr))
	})

	assert.Empty(t, model.calls())
}

func TestConvert_DisallowedExtension(t *testing.T) {
	srv, model := newTestServer(t, testOptions{hubEnabled: true})

	for _, name := range []string{"main.go", "script.rb", "notes.md", "archive.py.zip", "Main.JAVA"} {
		t.Run(name, func(t *testing.T) {
			req := multipartRequest(t, map[string]string{"source_lang": "python", "target_lang": "c"}, name, "print(1)")
			rr := serve(srv, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, msgInvalidFile, errorBody(t, rr))
		})
	}
	assert.Empty(t, model.calls())
}

func TestConvert_FileReplacesCodeField(t *testing.T) {
	srv, model := newTestServer(t, testOptions{hubEnabled: true})

	req := multipartRequest(t, map[string]string{
		"source_lang": "python",
		"target_lang": "c",
		"code":        "ignored",
	}, "hello.py", "print('from file')")
	rr := serve(srv, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	calls := model.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "print('from file')")
	assert.NotContains(t, calls[0], "ignored")
}

func TestConvert_Success(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true})

	rr := serve(srv, formRequest(url.Values{
		"source_lang": {"python"},
		"target_lang": {"c"},
		"code":        {"print('hi')"},
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	var body types.ConvertResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "int main() {\n    printf(\"hi\");\n    return 0;\n}", body.ConvertedCode)
}

func TestConvert_NoCandidates(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true, modelBody: `{"candidates":[]}`})

	rr := serve(srv, formRequest(url.Values{
		"source_lang": {"python"},
		"target_lang": {"c"},
		"code":        {"print('hi')"},
	}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Conversion failed"}`, rr.Body.String())
}

func TestConvert_JavaFallback(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{
		hubEnabled: true,
		modelBody:  `{"candidates":[{"content":{"parts":[{"text":"System.out.println(1);System.out.println(2);"}]}}]}`,
	})

	rr := serve(srv, formRequest(url.Values{
		"source_lang": {"python"},
		"target_lang": {"java"},
		"code":        {"print(1)\nprint(2)"},
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	var body types.ConvertResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "#include <stdio.h>\nint main() {\n    System.out.println(1);\n    System.out.println(2);\n    return 0;\n}", body.ConvertedCode)
}

func TestConvert_ValidatorRejects(t *testing.T) {
	srv, model := newTestServer(t, testOptions{
		hubEnabled: true,
		validator: validator.Func(func(code, language string) error {
			return types.ErrValidation
		}),
	})

	rr := serve(srv, formRequest(url.Values{
		"source_lang": {"python"},
		"target_lang": {"c"},
		"code":        {"print('hi')"},
	}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgInvalidCode, errorBody(t, rr))
	assert.Empty(t, model.calls())
}

func TestReview(t *testing.T) {
	t.Run("returns raw text", func(t *testing.T) {
		srv, _ := newTestServer(t, testOptions{hubEnabled: true, provider: &fakeProvider{text: "## Issues\n- none\n"}})

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"x = 1"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := serve(srv, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "## Issues\n- none\n", rr.Body.String())
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("missing code", func(t *testing.T) {
		srv, _ := newTestServer(t, testOptions{hubEnabled: true})

		for _, body := range []string{`{}`, `{"code":""}`, `not json`, `{"code":42}`} {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rr := serve(srv, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
			assert.Equal(t, msgPromptRequired, errorBody(t, rr))
		}
	})

	t.Run("body too large", func(t *testing.T) {
		srv, _ := newTestServer(t, testOptions{hubEnabled: true, maxBody: 64})

		body := `{"code":"` + strings.Repeat("x", 256) + `"}`
		for _, path := range []string{"/", "/ai-review/stream"} {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rr := serve(srv, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code, path)
			assert.Equal(t, msgBodyTooLarge, errorBody(t, rr))
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv, _ := newTestServer(t, testOptions{hubEnabled: true, provider: &fakeProvider{err: errors.New("boom")}})

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := serve(srv, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, msgReviewFailed, errorBody(t, rr))
	})
}

func TestReviewStream(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true, provider: &fakeProvider{chunks: []string{"first", "second"}}})

	req := httptest.NewRequest(http.MethodPost, "/ai-review/stream", strings.NewReader(`{"code":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(srv, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var started struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &started))
	require.NotEmpty(t, started.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	streamReq := httptest.NewRequest(http.MethodGet, "/ai-review/stream/"+started.ID, nil).WithContext(ctx)
	stream := serve(srv, streamReq)

	assert.Equal(t, http.StatusOK, stream.Code)
	assert.True(t, strings.HasPrefix(stream.Header().Get("Content-Type"), "text/event-stream"), stream.Header().Get("Content-Type"))
	body := stream.Body.String()
	assert.Contains(t, body, "first")
	assert.Contains(t, body, "second")
	assert.Contains(t, body, "[DONE]")
	assert.Less(t, strings.Index(body, "first"), strings.Index(body, "second"))
}

func startReviewJob(t *testing.T, srv *GinServer) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ai-review/stream", strings.NewReader(`{"code":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(srv, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var started struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &started))
	require.NotEmpty(t, started.ID)
	return started.ID
}

func TestReviewStream_CloseCancelsJob(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true, provider: &fakeProvider{chunks: []string{"partial"}, block: true}})

	id := startReviewJob(t, srv)
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stream := serve(srv, httptest.NewRequest(http.MethodGet, "/ai-review/stream/"+id, nil).WithContext(ctx))

	require.NoError(t, ctx.Err(), "job kept running after Close")
	body := stream.Body.String()
	assert.Contains(t, body, "partial")
	assert.Contains(t, body, "ERROR: "+msgReviewFailed)
	assert.Contains(t, body, "[DONE]")
}

func TestReviewStream_UnknownJob(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/ai-review/stream/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPages(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true})

	cases := map[string]string{
		"/":               "CodeFusion",
		"/ai-review":      "AI Code Review",
		"/code-converter": "Code Converter",
	}
	for path, want := range cases {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), want, path)
	}

	t.Run("review page streams", func(t *testing.T) {
		body := serve(srv, httptest.NewRequest(http.MethodGet, "/ai-review", nil)).Body.String()
		assert.Contains(t, body, `fetch("/ai-review/stream"`)
		assert.Contains(t, body, `new EventSource("/ai-review/stream/"`)
	})
}

func TestStandaloneConverter(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: false})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Code Converter")

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/ai-review", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = serve(srv, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(srv, formRequest(url.Values{
		"source_lang": {"python"},
		"target_lang": {"c"},
		"code":        {"print('hi')"},
	}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"codefusion"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr = serve(srv, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-Id"))
}

func TestRecoveryReturnsJSON(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{hubEnabled: true})
	srv.GetRouter().GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "kaboom")
}
