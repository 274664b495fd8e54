package config

import (
	"strings"

	"hifidel/internal/services"
)

// Validate ensures the configuration is usable. Unit file existence is
// deliberately not checked here; that happens when the Run is constructed so
// a half-filled unit is still discovered and then fails fast.
func (c *Config) Validate() error {
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateUnits(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Name == "" {
		return services.Wrap(services.ErrConfig, "config", "run.name", "must be set", nil)
	}
	if strings.TrimSpace(c.Run.InputDir) == "" {
		return services.Wrap(services.ErrConfig, "config", "run.input_dir", "must be set", nil)
	}
	if strings.TrimSpace(c.Run.OutputDir) == "" {
		return services.Wrap(services.ErrConfig, "config", "run.output_dir", "must be set", nil)
	}
	return nil
}

func (c *Config) validateUnits() error {
	units, err := c.DiscoverUnits()
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return services.Wrap(services.ErrConfig, "config", "units", "no processing units configured", nil)
	}
	return nil
}
