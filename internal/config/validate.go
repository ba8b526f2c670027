package config

import (
	"errors"
	"fmt"
)

var validLogFormats = map[string]struct{}{
	"auto":    {},
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateImagery(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format must be one of auto, console, json (got %q)", c.Logging.Format)
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must be set")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.BaseURL == "" {
		return errors.New("speech.base_url must be set")
	}
	if c.Speech.Voice == "" {
		return errors.New("speech.voice must be set")
	}
	return nil
}

func (c *Config) validateImagery() error {
	if !c.Imagery.Enabled {
		return nil
	}
	if c.Imagery.BaseURL == "" {
		return errors.New("imagery.base_url must be set when imagery.enabled is true")
	}
	if c.Imagery.Model == "" {
		return errors.New("imagery.model must be set when imagery.enabled is true")
	}
	return nil
}
