package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/config"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/policy"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/telemetry"
)

// chatModelFactory replaces the model constructor in tests.
var chatModelFactory llm.ChatModelFactory

// runtime is everything a command needs to act for the configured user.
type runtime struct {
	cfg    *config.AppConfig
	lang   i18n.Lang
	logger *slog.Logger
	llm    *config.LLMSource
	svc    *app.Service
}

// openRuntime loads the configuration and opens storage, policy, telemetry
// and the model source. Callers must Close the runtime.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := slog.Default()

	source, err := config.WatchLLMConfig(log)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	engine, err := policy.NewEngine(ctx, policy.EngineConfig{
		PoliciesDir: policy.GetPoliciesPath(cfg.Storage.DataDir),
		Fs:          appFs,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	lang := i18n.Parse(cfg.Lang)
	svc := app.NewService(app.Deps{
		Backend:          backend,
		LLM:              source.Config,
		Policy:           engine,
		Telemetry:        newTelemetry(cfg, log),
		Logger:           log,
		Lang:             lang,
		ChatModelFactory: chatModelFactory,
		Now:              now,
	})
	return &runtime{cfg: cfg, lang: lang, logger: log, llm: source, svc: svc}, nil
}

func newTelemetry(cfg *config.AppConfig, log *slog.Logger) telemetry.Client {
	consent, err := telemetry.Load(cfg.Storage.DataDir)
	if err != nil || !consent.IsEnabled() {
		return telemetry.NoopClient{}
	}
	client, err := telemetry.NewPostHogClient(telemetry.ClientConfig{
		APIKey:   cfg.Telemetry.APIKey,
		Endpoint: cfg.Telemetry.Endpoint,
		Version:  version,
		Config:   consent,
	})
	if err != nil {
		log.Debug("telemetry disabled", "error", err)
		return telemetry.NoopClient{}
	}
	return client
}

// session opens the configured user's session.
func (r *runtime) session(ctx context.Context) (*app.Session, error) {
	return r.svc.Session(ctx, r.cfg.Identity())
}

func (r *runtime) Close() error { return r.svc.Close() }

// withSession runs fn with an open session and closes the runtime after.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime, sess *app.Session) error) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.session(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, rt, sess)
}
