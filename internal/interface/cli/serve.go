package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"secondbrain/agent/internal/adapter/gateway/llm"
	"secondbrain/agent/internal/adapter/gateway/telegram"
	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/app/state"
	"secondbrain/agent/internal/application/agent"
	"secondbrain/agent/internal/application/pipeline"
	noterepo "secondbrain/agent/internal/infra/repository/note"
	"secondbrain/agent/internal/interface/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

// runServe is the composition root: it creates the concrete
// implementations and hands them to the pipeline and web layer.
func runServe() error {
	cfg := globalConfig
	logger := app.GetLogger()

	if cfg.TelegramToken == "" {
		return fmt.Errorf("telegram token not configured (BRAIN_TELEGRAM_TOKEN or setting.yml)")
	}
	if cfg.OpenAIKey == "" {
		return fmt.Errorf("completion API key not configured (BRAIN_OPENAI_KEY or setting.yml)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := noterepo.NewFileRepository(afero.NewOsFs(), cfg.DataDir)
	if err != nil {
		return err
	}
	watcher, err := noterepo.Watch(repo, cfg.DataDir)
	if err != nil {
		logger.Warn("note directory watcher unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	var llmOpts []llm.OpenAIOption
	if cfg.OpenAIBaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(cfg.OpenAIBaseURL))
	}
	llmOpts = append(llmOpts, llm.WithTimeout(cfg.LLMTimeout))
	gateway := llm.NewOpenAIGateway(cfg.OpenAIKey, llmOpts...)

	st := state.New(
		state.WithHistoryLimit(cfg.HistoryLimit),
		state.WithPendingTTL(cfg.PendingTTL),
	)
	p := pipeline.New(
		st,
		agent.NewClassifier(gateway, cfg.Model),
		agent.NewExtractor(gateway, cfg.Model),
		agent.NewSmallTalk(gateway, cfg.Model),
		pipeline.NewDispatcher(repo, st),
	)

	tg := telegram.NewClient(cfg.TelegramToken)
	if cfg.WebhookBaseURL != "" {
		hookURL, err := telegram.WebhookURL(cfg.WebhookBaseURL)
		if err != nil {
			return err
		}
		logger.Info("registering webhook %s", hookURL)
		if err := tg.SetWebhook(ctx, hookURL); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := tg.DeleteWebhook(cleanupCtx); err != nil {
				logger.Warn("delete webhook: %v", err)
			}
		}()
	} else {
		logger.Warn("no webhook base URL configured; inbound updates must be delivered to %s manually", cfg.Addr())
	}

	handler := web.NewHandler(p, tg, repo)
	server := web.NewServer(cfg.Addr(), handler.Routes())
	return server.Run(ctx)
}
