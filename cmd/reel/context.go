package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"reel/internal/config"
	"reel/internal/export"
	"reel/internal/grounding"
	"reel/internal/language"
	"reel/internal/logging"
	"reel/internal/pipeline"
	"reel/internal/script"
	"reel/internal/services/imagery"
	"reel/internal/services/llm"
	"reel/internal/services/speech"
	"reel/internal/session"
	"reel/internal/sources"
	"reel/internal/stage"
	"reel/internal/tagging"
	"reel/internal/visuals"
	"reel/internal/voiceover"
)

type commandContext struct {
	configFlag  *string
	sessionFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, sessionFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		sessionFlag: sessionFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) sessionID() string {
	if c.sessionFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.sessionFlag)
}

// withSession opens the session named by --session (or a fresh one), wires
// the standard pipelines into it, and guarantees the lock is released when fn
// returns.
func (c *commandContext) withSession(fn func(*session.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	sess, err := session.Open(cfg, logger, c.sessionID())
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := registerPipelines(sess, cfg, logger); err != nil {
		return err
	}
	return fn(sess)
}

func registerPipelines(sess *session.Session, cfg *config.Config, logger *slog.Logger) error {
	llmClient := llm.NewClient(cfg.LLM)

	voice, err := language.Normalize(cfg.Speech.Language)
	if err != nil {
		return fmt.Errorf("speech language: %w", err)
	}
	speechClient := speech.NewClient(cfg.Speech, cfg.Speech.Voice, voice)
	imageryClient := imagery.NewClient(cfg.Imagery)
	fetcher := sources.NewFetcher(cfg.Sources)
	store := sess.Artifacts()

	specs := []struct {
		id        string
		generator stage.Generator
	}{
		{"ground", grounding.NewGenerator(fetcher, store, logger)},
		{"script", script.NewGenerator(llmClient, store, logger)},
		{"tags", tagging.NewGenerator(llmClient, logger)},
		{"audio", voiceover.NewGenerator(speechClient, store, logger)},
		{"visuals", visuals.NewGenerator(llmClient, imageryClient, store, logger)},
		{"export", export.NewGenerator(store, logger)},
	}
	for _, spec := range specs {
		p, err := pipeline.New(spec.id, logger, stage.NewMergeApplier(), spec.generator)
		if err != nil {
			return fmt.Errorf("build pipeline %s: %w", spec.id, err)
		}
		if err := sess.Register(p); err != nil {
			return fmt.Errorf("register pipeline %s: %w", spec.id, err)
		}
	}
	return nil
}
