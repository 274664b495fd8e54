package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"hifidel/internal/services"
)

// unitKeyPattern matches configured unit table names: the common "unit"
// prefix plus a zero-padded numeric suffix (unit01, unit02, ... unit16).
var unitKeyPattern = regexp.MustCompile(`^unit(\d{2,})$`)

// DiscoveredUnit is one processing unit as found in the configuration,
// ordered by numeric suffix. Paths are resolved against run.input_dir when
// relative; existence is checked later, at Run construction.
type DiscoveredUnit struct {
	Index       int
	Label       string
	BAM         string
	SampleSheet string
}

// DiscoverUnits scans the [units] map for keys matching the unit-naming
// pattern and returns them ordered ascending by numeric suffix. A unit is
// included when either of its two fields is non-empty; a unit with only one
// field filled in is admitted here and rejected by the later file-existence
// check, never silently dropped.
func (c *Config) DiscoverUnits() ([]DiscoveredUnit, error) {
	discovered := make([]DiscoveredUnit, 0, len(c.Units))
	for key, unit := range c.Units {
		match := unitKeyPattern.FindStringSubmatch(key)
		if match == nil {
			return nil, services.Wrap(services.ErrConfig, "config", "units",
				fmt.Sprintf("unrecognized unit key %q (expected unitNN)", key), nil)
		}
		bam := strings.TrimSpace(unit.BAM)
		sheet := strings.TrimSpace(unit.SampleSheet)
		if bam == "" && sheet == "" {
			continue
		}

		index, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, services.Wrap(services.ErrConfig, "config", "units",
				fmt.Sprintf("unit key %q has non-numeric suffix", key), nil)
		}

		resolvedBAM, err := c.resolveInputPath(key, "bam", bam)
		if err != nil {
			return nil, err
		}
		resolvedSheet, err := c.resolveInputPath(key, "samplesheet", sheet)
		if err != nil {
			return nil, err
		}

		discovered = append(discovered, DiscoveredUnit{
			Index:       index,
			Label:       fmt.Sprintf("unit%02d", index),
			BAM:         resolvedBAM,
			SampleSheet: resolvedSheet,
		})
	}

	sort.Slice(discovered, func(i, j int) bool { return discovered[i].Index < discovered[j].Index })

	for i := 1; i < len(discovered); i++ {
		if discovered[i].Index == discovered[i-1].Index {
			return nil, services.Wrap(services.ErrConfig, "config", "units",
				fmt.Sprintf("duplicate unit index %d", discovered[i].Index), nil)
		}
	}
	return discovered, nil
}

// resolveInputPath expands one unit file reference. An empty value is passed
// through so the missing-file check can report it; a value that expands to
// an empty string is a configuration error.
func (c *Config) resolveInputPath(key, field, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !filepath.IsAbs(value) {
		value = filepath.Join(c.Run.InputDir, value)
	}
	expanded, err := expandPath(value)
	if err != nil {
		return "", services.Wrap(services.ErrConfig, "config",
			fmt.Sprintf("units.%s.%s", key, field), "path expansion failed", err)
	}
	if strings.TrimSpace(expanded) == "" {
		return "", services.Wrap(services.ErrConfig, "config",
			fmt.Sprintf("units.%s.%s", key, field), "path expands to empty string", nil)
	}
	return expanded, nil
}
