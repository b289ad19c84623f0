package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/llm/llmtest"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/task"
	"github.com/josephgoksu/azubihub/internal/telemetry"
	"github.com/josephgoksu/azubihub/internal/ui"
	"github.com/josephgoksu/azubihub/internal/util"
	"github.com/josephgoksu/azubihub/internal/validation"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

type cliEnv struct {
	dir    string
	fs     afero.Fs
	fake   *llmtest.ChatModel
	stderr bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("AZUBIHUB_DATADIR", filepath.Join(dir, "data"))
	t.Setenv("AZUBIHUB_LLM_APIKEY", "test-key")
	t.Setenv("AZUBIHUB_USER_EMAIL", "lena@example.de")

	// Start from a stored, empty user rather than the example data.
	backend, err := storage.NewLocalBackend(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.NoError(t, backend.SaveTasks(context.Background(), storage.Identity{Email: "lena@example.de"}.Normalize(), nil))
	require.NoError(t, backend.Close())

	env := &cliEnv{dir: dir, fs: afero.NewMemMapFs(), fake: &llmtest.ChatModel{}}

	prevFs, prevNow, prevFactory := appFs, now, chatModelFactory
	appFs, now, chatModelFactory = env.fs, func() time.Time { return testNow }, llmtest.Factory(env.fake)
	t.Cleanup(func() { appFs, now, chatModelFactory = prevFs, prevNow, prevFactory })
	return env
}

// run executes the root command with args and returns its stdout. Stderr is
// kept in e.stderr.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	e.stderr.Reset()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&e.stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (e *cliEnv) listTasks(t *testing.T) []task.Task {
	t.Helper()
	out, err := e.run(t, "", "task", "list", "--json")
	require.NoError(t, err)
	var tasks []task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	return tasks
}

func TestTaskCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "task", "add", "Regale", "aufgefüllt")
	require.NoError(t, err)
	assert.Contains(t, out, "Regale aufgefüllt")

	_, err = env.run(t, "", "task", "add", "Dreisatz", "--category", "school", "--due", "2024-03-20")
	require.NoError(t, err)

	// Newest first.
	tasks := env.listTasks(t)
	require.Len(t, tasks, 2)
	school, work := tasks[0], tasks[1]
	assert.Equal(t, task.CategorySchool, school.Category)
	assert.Equal(t, "2024-03-20", school.DueDate)
	assert.Equal(t, "Regale aufgefüllt", work.Text)

	out, err = env.run(t, "", "task", "done", ui.TruncateID(work.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "50 XP")

	// Done twice does not award twice.
	_, err = env.run(t, "", "task", "done", work.ID)
	require.NoError(t, err)
	out, err = env.run(t, "", "progress")
	require.NoError(t, err)
	assert.Contains(t, out, "50 XP")

	_, err = env.run(t, "", "task", "undo", work.ID)
	require.NoError(t, err)
	assert.False(t, env.listTasks(t)[1].Completed)

	_, err = env.run(t, "", "task", "rm", school.ID)
	require.NoError(t, err)
	assert.Len(t, env.listTasks(t), 1)

	out, err = env.run(t, "", "task", "list", "--category", "Berufsschule")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks yet")
}

func TestCommands_LogOnlyToStderr(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "task", "add", "Inventur")
	require.NoError(t, err)
	out, err := env.run(t, "", "task", "list", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), "stdout is not JSON: %q", out)
	assert.Empty(t, env.stderr.String())

	out, err = env.run(t, "", "task", "list", "--json", "--verbose")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), "stdout is not JSON: %q", out)
	assert.Contains(t, env.stderr.String(), "session opened")
}

func TestTaskCommands_Errors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "task", "add", "x", "--category", "Freizeit")
	assert.ErrorContains(t, err, "unknown category")

	_, err = env.run(t, "", "task", "add", "x", "--due", "20.03.2024")
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)

	_, err = env.run(t, "", "task", "done", "nope")
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestResolveTask_AmbiguousPrefix(t *testing.T) {
	store := task.NewStore([]task.Task{
		{ID: "abc1", Text: "a", Category: task.CategoryWorkplace},
		{ID: "abc2", Text: "b", Category: task.CategoryWorkplace},
	}, nil)

	_, err := resolveTask(store, "abc")
	assert.ErrorIs(t, err, util.ErrAmbiguousID)

	got, err := resolveTask(store, "abc2")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Text)
}

func TestReportCommands(t *testing.T) {
	env := newCLIEnv(t)
	env.fake.Reply = `{"betrieblicheTaetigkeiten":"• Regale aufgefüllt","unterweisung":"Kassenabschluss","berufsschule":"• Dreisatz","gesamtstunden":"38"}`

	_, err := env.run(t, "", "report", "generate")
	assert.ErrorIs(t, err, report.ErrNoTasksInPeriod)

	_, err = env.run(t, "", "task", "add", "Regale aufgefüllt")
	require.NoError(t, err)
	_, err = env.run(t, "", "task", "done", env.listTasks(t)[0].ID)
	require.NoError(t, err)

	out, err := env.run(t, "", "report", "period")
	require.NoError(t, err)
	assert.Contains(t, out, "KW 11")
	assert.Contains(t, out, "11.03.2024 - 16.03.2024")
	assert.Contains(t, out, "Regale aufgefüllt")

	out, err = env.run(t, "", "report", "generate", "--style", "concise", "--out", "kw11.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Kassenabschluss")

	data, err := afero.ReadFile(env.fs, "kw11.json")
	require.NoError(t, err)
	var content report.Content
	require.NoError(t, json.Unmarshal(data, &content))
	assert.Equal(t, "38", content.TotalHours)

	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	require.NoError(t, afero.WriteFile(env.fs, "vorlage.pdf", buf.Bytes(), 0o644))

	out, err = env.run(t, "", "report", "render", "--template", "vorlage.pdf", "--report", "kw11.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Berichtsheft_KW11.pdf")
	pdfData, err := afero.ReadFile(env.fs, "Berichtsheft_KW11.pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfData, []byte("%PDF")))

	out, err = env.run(t, "", "report", "done")
	require.NoError(t, err)
	assert.Contains(t, out, "erledigt")
	assert.Contains(t, out, "150 XP")

	_, err = env.run(t, "", "report", "generate", "--date", "2024-03-04")
	assert.ErrorIs(t, err, report.ErrNoTasksInPeriod)
}

func TestChatCommand_PipedOutputStreams(t *testing.T) {
	env := newCLIEnv(t)
	env.fake.Chunks = []string{"Hallo ", "Lena!"}

	out, err := env.run(t, "", "chat", "Wie", "geht's?")
	require.NoError(t, err)
	assert.Contains(t, out, "Hallo Lena!")

	out, err = env.run(t, "Erste Frage\n\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Hallo Lena!")
}

func TestQuizCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.fake.Reply = `[{"question":"Was ist ein Kassenbon?","answer":"Beleg"},{"question":"Was ist MHD?","answer":"Mindesthaltbarkeitsdatum"}]`

	out, err := env.run(t, "\ny\n\nn\n", "quiz", "Kasse")
	require.NoError(t, err)
	assert.Contains(t, out, "Was ist ein Kassenbon?")
	assert.Contains(t, out, "Mindesthaltbarkeitsdatum")
	assert.Contains(t, out, "1/2 richtig")
	// 20 for the correct answer, 50 for finishing the set.
	assert.Contains(t, out, "70 XP")
}

func TestConfigInit(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(env.dir, "azubihub.yaml")

	out, err := env.run(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = env.run(t, "", "config", "init", path)
	assert.ErrorContains(t, err, "--force")

	_, err = env.run(t, "", "config", "init", path, "--force")
	assert.NoError(t, err)

	out, err = env.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "lena@example.de")
	assert.Contains(t, out, "key set: true")
}

func TestSetup(t *testing.T) {
	env := newCLIEnv(t)
	prev := runSetupForm
	runSetupForm = func(v *ui.SetupValues) error {
		assert.Equal(t, "lena@example.de", v.Email)
		v.Name = "Lena"
		v.Provider = llm.ProviderOpenAI
		v.APIKey = " sk-test "
		v.Telemetry = true
		return nil
	}
	t.Cleanup(func() { runSetupForm = prev })

	_, err := env.run(t, "", "setup")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(env.dir, ".azubihub.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sk-test")
	assert.Contains(t, string(data), "openai")
	assert.Contains(t, string(data), "Lena")

	consent, err := telemetry.Load(filepath.Join(env.dir, "data"))
	require.NoError(t, err)
	assert.True(t, consent.IsEnabled())
	assert.False(t, consent.NeedsConsent())
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "azubihub "+version)
}

func TestRenderError(t *testing.T) {
	got := renderError(llm.ErrMissingCredentials)
	assert.Contains(t, got, "azubihub setup")

	got = renderError(validation.Field("text", "must not be empty"))
	assert.Contains(t, got, "text: must not be empty")
}

func TestFilesCommands(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, "ausbildungsplan.txt", []byte("Ausbildungsrahmenplan Einzelhandel"), 0o644))
	require.NoError(t, afero.WriteFile(env.fs, "leer.txt", nil, 0o644))

	out, err := env.run(t, "", "files", "add", "ausbildungsplan.txt")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 3)
	shortID := fields[2]

	out, err = env.run(t, "", "files", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ausbildungsplan.txt")
	assert.Contains(t, out, shortID)

	_, err = env.run(t, "", "files", "add", "leer.txt")
	assert.Error(t, err)

	_, err = env.run(t, "", "files", "rm", "zzzzzz")
	assert.Error(t, err)

	out, err = env.run(t, "", "files", "rm", shortID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	out, err = env.run(t, "", "files", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents yet.")
}
