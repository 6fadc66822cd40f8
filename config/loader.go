package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"loopimmo/server/internal/pricing"
)

// LoadFeeSchedule reads the fee schedule from a YAML file. An empty path
// yields the default schedule. Keys missing from the file keep their defaults.
func LoadFeeSchedule(path string) (pricing.Schedule, error) {
	schedule := pricing.DefaultSchedule()
	if path == "" {
		return schedule, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return schedule, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return schedule, fmt.Errorf("failed to read fee schedule: %w", err)
	}

	if err := yaml.Unmarshal(data, &schedule); err != nil {
		return schedule, fmt.Errorf("failed to parse fee schedule: %w", err)
	}

	if err := schedule.Validate(); err != nil {
		return schedule, err
	}
	return schedule, nil
}
