package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hireloop/interview-coach/pkg/config"
	"github.com/hireloop/interview-coach/pkg/guard"
	"github.com/hireloop/interview-coach/pkg/interview"
	"github.com/hireloop/interview-coach/pkg/llm"
	"github.com/hireloop/interview-coach/pkg/prompts"
)

// buildCoach loads configuration and assembles the gateway, guard pipeline,
// and coach. Configuration failures here are the only fatal errors in the
// program; everything past startup is recoverable.
func buildCoach() (coach *interview.Coach, err error) {
	setupLogging()

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = fmt.Errorf("failed to load config: %w", err)
		return coach, err
	}

	presets := prompts.DefaultPresets()
	if cfg.PresetsFile != "" {
		presets, err = prompts.LoadPresets(cfg.PresetsFile)
		if err != nil {
			err = fmt.Errorf("failed to load presets: %w", err)
			return coach, err
		}
	}

	client := llm.NewClient(cfg.OpenAIAPIKey, cfg.Model, cfg.ModerationModel)
	pipeline := guard.NewPipeline(client, cfg.MaxInputLength, cfg.MaxRequestsPerSession)
	pricing := interview.Pricing{
		InputPerMillion:  cfg.Pricing.InputPerMillion,
		OutputPerMillion: cfg.Pricing.OutputPerMillion,
	}

	coach = interview.NewCoach(client, pipeline, pricing, presets)

	return coach, err
}

// setupLogging routes slog to stderr, at debug level when verbose.
func setupLogging() {
	level := slog.LevelWarn
	if getVerbose() {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
