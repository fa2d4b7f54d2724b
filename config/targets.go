package config

import (
	"fmt"
	"os"

	"github.com/use-agent/cartprobe/models"
	"gopkg.in/yaml.v3"
)

// DefaultTargets is the built-in worklist.
var DefaultTargets = []models.Target{
	{
		URL:        "https://www.tecnocubo.com.br/filamento-impressao-3d-creality-hyper-pla-rainbow-arco-iris-spring-lake-1kg/p",
		SequenceID: "1",
	},
}

// LoadTargets returns the worklist: the file named by TargetsFile when set,
// DefaultTargets otherwise. Every target is validated and sequence ids must
// be unique, since they name the run's artifacts.
func (c *Config) LoadTargets() ([]models.Target, error) {
	targets := DefaultTargets
	if c.TargetsFile != "" {
		data, err := os.ReadFile(c.TargetsFile)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
				"failed to read targets file", err)
		}
		targets, err = ParseTargets(data)
		if err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// ParseTargets decodes a YAML (or JSON) list of targets.
func ParseTargets(data []byte) ([]models.Target, error) {
	var targets []models.Target
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			"failed to decode targets", err)
	}
	if len(targets) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			"targets list is empty", nil)
	}

	seen := make(map[string]struct{}, len(targets))
	for i, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		if _, dup := seen[t.SequenceID]; dup {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
				"duplicate sequence id "+t.SequenceID, nil)
		}
		seen[t.SequenceID] = struct{}{}
	}
	return targets, nil
}
