package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/llm/llmtest"
	"github.com/josephgoksu/azubihub/internal/policy"
	"github.com/josephgoksu/azubihub/internal/progress"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/task"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

type testEnv struct {
	srv     *Server
	handler http.Handler
	fake    *llmtest.ChatModel
}

func newTestEnv(t *testing.T, cfg Config, llmCfg llm.Config) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend, err := storage.NewLocalBackend(":memory:")
	require.NoError(t, err)
	engine, err := policy.NewEngine(context.Background(), policy.EngineConfig{})
	require.NoError(t, err)

	fake := &llmtest.ChatModel{}
	deps := app.Deps{
		Backend: backend,
		LLM:     llm.Static(llmCfg),
		Policy:  engine,
		Logger:  logger,
		Now:     func() time.Time { return testNow },
	}
	if llmCfg.APIKey != "" {
		deps.ChatModelFactory = llmtest.Factory(fake)
	}
	svc := app.NewService(deps)
	t.Cleanup(func() { _ = svc.Close() })

	if cfg.LocalUser.Email == "" {
		cfg.LocalUser = storage.Identity{Email: "lena@example.de", Name: "Lena"}
	}
	srv := New(cfg, svc, logger)
	srv.now = func() time.Time { return testNow }
	return &testEnv{srv: srv, handler: srv.Handler(), fake: fake}
}

func newLocalEnv(t *testing.T) *testEnv {
	return newTestEnv(t, Config{}, llm.Config{Provider: llm.ProviderGemini, APIKey: "k"})
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newLocalEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["localMode"])
}

func TestTasks_CRUD(t *testing.T) {
	env := newLocalEnv(t)

	rec := env.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]task.Task](t, rec), 3)

	rec = env.do(t, http.MethodPost, "/api/tasks", task.Draft{Text: "Ware verräumt", Category: task.CategoryWorkplace})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[task.Task](t, rec)
	assert.Equal(t, "Ware verräumt", created.Text)

	rec = env.do(t, http.MethodPatch, "/api/tasks/"+created.ID, map[string]string{"text": "Ware eingeräumt"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ware eingeräumt", decode[task.Task](t, rec).Text)

	rec = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decode[struct {
		Task     task.Task         `json:"task"`
		Progress progress.Snapshot `json:"progress"`
	}](t, rec)
	assert.True(t, toggled.Task.Completed)
	assert.Equal(t, storage.SeedXP+progress.XPTaskCompleted, toggled.Progress.XP)

	rec = env.do(t, http.MethodGet, "/api/tasks?category=school", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]task.Task](t, rec), 1)

	rec = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasks_ValidationErrors(t *testing.T) {
	env := newLocalEnv(t)

	rec := env.do(t, http.MethodPost, "/api/tasks", task.Draft{Text: "  ", Category: "Urlaub"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "validation", body.Code)
	assert.Contains(t, body.Fields, "text")
	assert.Contains(t, body.Fields, "category")

	rec = env.do(t, http.MethodGet, "/api/tasks?category=holiday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports_PeriodGenerateRender(t *testing.T) {
	env := newLocalEnv(t)
	env.fake.Reply = `{"betrieblicheTaetigkeiten":"• Regale aufgefüllt","unterweisung":"Kassenabschluss","berufsschule":"• Buchungssätze","gesamtstunden":"38"}`

	rec := env.do(t, http.MethodGet, "/api/reports/period?date=2024-03-13", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	period := decode[periodResponse](t, rec)
	assert.Equal(t, "2024-W11", period.Period.ID)
	assert.Equal(t, "11.03.2024 - 16.03.2024", period.DateRange)
	assert.Equal(t, "Berichtsheft_KW11.pdf", period.FileName)
	assert.False(t, period.Done)

	rec = env.do(t, http.MethodGet, "/api/reports/period?date=13.03.2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/reports/generate", generateRequest{Date: "2024-03-15", Style: "concise"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, res["taskCount"])

	rec = env.do(t, http.MethodPatch, "/api/reports/draft", map[string]string{"gesamtstunden": "40"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = renderRequest(t, env, blankTemplate(t), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Berichtsheft_KW11.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = env.do(t, http.MethodPost, "/api/reports/2024-W11/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[struct {
		Done bool `json:"done"`
	}](t, rec).Done)
}

func TestReports_ErrorMapping(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		env := newTestEnv(t, Config{}, llm.Config{Provider: llm.ProviderGemini})
		rec := env.do(t, http.MethodPost, "/api/reports/generate", generateRequest{Date: "2024-03-15"}, "Accept-Language", "en-US")

		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "missing_credentials", body.Code)
		assert.Equal(t, "No API key available. Please set one in Settings.", body.Error)
	})

	t.Run("generation failed", func(t *testing.T) {
		env := newLocalEnv(t)
		env.fake.Err = assert.AnError
		rec := env.do(t, http.MethodPost, "/api/reports/generate", generateRequest{Date: "2024-03-15"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("no tasks in week", func(t *testing.T) {
		env := newLocalEnv(t)
		rec := env.do(t, http.MethodPost, "/api/reports/generate", generateRequest{Date: "2023-01-02"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("render without template", func(t *testing.T) {
		env := newLocalEnv(t)
		rec := renderRequest(t, env, nil, `{"betrieblicheTaetigkeiten":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "template_missing", decode[errorBody](t, rec).Code)
	})

	t.Run("render unreadable template", func(t *testing.T) {
		env := newLocalEnv(t)
		rec := renderRequest(t, env, []byte("not a pdf at all"), `{"betrieblicheTaetigkeiten":"x"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "template_unreadable", decode[errorBody](t, rec).Code)
	})

	t.Run("render before generate", func(t *testing.T) {
		env := newLocalEnv(t)
		rec := renderRequest(t, env, blankTemplate(t), "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestFiles_UploadListContentDelete(t *testing.T) {
	env := newLocalEnv(t)

	rec := multipartRequest(t, env, "/api/files", "file", "notizen.txt", []byte("Kassenabschluss um 20 Uhr"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[storage.FileView](t, rec)
	assert.True(t, view.Persisted)

	rec = env.do(t, http.MethodGet, "/api/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]storage.FileView](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/files/"+view.ID+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kassenabschluss um 20 Uhr", rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/files/"+view.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/files/"+view.ID+"/content", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiles_ContentDispositionKeepsUmlauts(t *testing.T) {
	env := newLocalEnv(t)

	rec := multipartRequest(t, env, "/api/files", "file", "Prüfungsplan.txt", []byte("Zwischenprüfung im Mai"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[storage.FileView](t, rec)

	rec = env.do(t, http.MethodGet, "/api/files/"+view.ID+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	header := rec.Header().Get("Content-Disposition")
	assert.NotContains(t, header, `\u00fc`)
	disposition, params, err := mime.ParseMediaType(header)
	require.NoError(t, err)
	assert.Equal(t, "inline", disposition)
	assert.Equal(t, "Prüfungsplan.txt", params["filename"])
}

func TestFiles_PolicyRejection(t *testing.T) {
	env := newLocalEnv(t)
	rec := multipartRequest(t, env, "/api/files", "file", "leer.pdf", []byte{}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "upload_rejected", body.Code)
	assert.NotEmpty(t, body.Violations)
}

func TestChat_StreamsServerSentEvents(t *testing.T) {
	env := newLocalEnv(t)
	env.fake.Chunks = []string{"Hallo ", "Lena!"}

	rec := env.do(t, http.MethodPost, "/api/chat", chatRequest{Message: "Hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, [2]string{"message", `{"text":"Hallo "}`}, events[0])
	assert.Equal(t, [2]string{"message", `{"text":"Lena!"}`}, events[1])
	assert.Equal(t, "done", events[2][0])
	assert.Contains(t, events[2][1], "Hallo Lena!")

	rec = env.do(t, http.MethodPost, "/api/chat", chatRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuiz_Flow(t *testing.T) {
	env := newLocalEnv(t)
	env.fake.Reply = `[{"question":"Was ist ein Kassenbon?","answer":"Beleg"},{"question":"Was ist MHD?","answer":"Mindesthaltbarkeitsdatum"}]`

	rec := env.do(t, http.MethodPost, "/api/quiz/answer", map[string]bool{"correct": true})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/flashcards", map[string]string{"topic": "Kasse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/quiz/answer", map[string]bool{"correct": true})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/quiz/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/progress", nil)
	snap := decode[progress.Snapshot](t, rec)
	assert.Equal(t, storage.SeedXP+progress.XPQuizCorrect+progress.XPQuizSetFinished, snap.XP)
}

func TestAuth_BearerTokens(t *testing.T) {
	env := newTestEnv(t, Config{JWTSecret: testSecret}, llm.Config{Provider: llm.ProviderGemini, APIKey: "k"})

	rec := env.do(t, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tasks", nil, "Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, "wrong-secret-wrong-secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := sign(t, jwt.SigningMethodHS256, testSecret)
	rec = env.do(t, http.MethodPost, "/api/tasks", task.Draft{Text: "Nur für Max", Category: task.CategoryOther}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tasks", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]task.Task](t, rec), 4)

	other := signClaims(t, jwt.MapClaims{"sub": "user-2", "email": "sam@example.de", "exp": time.Now().Add(time.Hour).Unix()})
	rec = env.do(t, http.MethodGet, "/api/tasks", nil, "Authorization", "Bearer "+other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]task.Task](t, rec), 3, "users must not see each other's tasks")

	expired := signClaims(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	rec = env.do(t, http.MethodGet, "/api/tasks", nil, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t, Config{CORSOrigins: []string{"http://localhost:5173"}}, llm.Config{Provider: llm.ProviderGemini, APIKey: "k"})

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func sign(t *testing.T, method jwt.SigningMethod, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub":   "user-1",
		"email": "max@example.de",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func blankTemplate(t *testing.T) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func renderRequest(t *testing.T, env *testEnv, template []byte, reportJSON string) *httptest.ResponseRecorder {
	t.Helper()
	fields := map[string]string{"date": "2024-03-15"}
	if reportJSON != "" {
		fields["report"] = reportJSON
	}
	if template == nil {
		return multipartRequest(t, env, "/api/reports/render", "", "", nil, fields)
	}
	return multipartRequest(t, env, "/api/reports/render", "template", "vorlage.pdf", template, fields)
}

func multipartRequest(t *testing.T, env *testEnv, path, field, name string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

// parseEvents returns (event, data) pairs of an SSE body.
func parseEvents(t *testing.T, body string) [][2]string {
	t.Helper()
	var (
		events [][2]string
		cur    [2]string
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur[0] = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur[1] = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, cur)
			cur = [2]string{}
		}
	}
	return events
}
