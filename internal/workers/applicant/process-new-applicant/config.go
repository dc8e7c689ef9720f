package processnewapplicant

import (
	"fmt"
	"time"

	"applicant-workers/internal/common/config"
	"applicant-workers/internal/scoring"
)

type Config struct {
	Timeout            time.Duration
	DefaultThreshold   int
	DefaultTraitPoints int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:            120 * time.Second,
		DefaultThreshold:   scoring.DefaultThreshold,
		DefaultTraitPoints: 10,
	}
}

// NewConfig reads the worker timeout and scoring defaults from the app config.
func NewConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if wcfg := config.GetWorkerConfig(cfg, TaskType); wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if cfg.Scoring.DefaultThreshold > 0 {
		c.DefaultThreshold = cfg.Scoring.DefaultThreshold
	}
	if cfg.Scoring.DefaultTraitPoints > 0 {
		c.DefaultTraitPoints = cfg.Scoring.DefaultTraitPoints
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DefaultTraitPoints <= 0 {
		return fmt.Errorf("default_trait_points must be positive")
	}
	return nil
}
