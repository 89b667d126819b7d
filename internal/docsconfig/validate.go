package docsconfig

import (
	"fmt"

	"github.com/hk9890/docs-cache/internal/pathsafety"
)

// Validate enforces the constraints of spec.md §3/§4.2: per-field shape,
// non-empty include lists, no duplicate ids.
func (c *Config) Validate() error {
	if err := c.TargetMode.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if err := pathsafety.AssertSafeID(src.ID); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if seen[src.ID] {
			return fmt.Errorf("sources[%d]: duplicate source id %q", i, src.ID)
		}
		seen[src.ID] = true

		if src.Repo == "" {
			return fmt.Errorf("sources[%d] (%s): repo is required", i, src.ID)
		}
		if src.Depth < 0 {
			return fmt.Errorf("sources[%d] (%s): depth must be >= 1", i, src.ID)
		}
		if src.Depth != 0 && src.Depth < 1 {
			return fmt.Errorf("sources[%d] (%s): depth must be >= 1", i, src.ID)
		}
		if src.MaxBytes != 0 && src.MaxBytes < 1 {
			return fmt.Errorf("sources[%d] (%s): maxBytes must be >= 1", i, src.ID)
		}
		if src.MaxFiles != nil && *src.MaxFiles < 1 {
			return fmt.Errorf("sources[%d] (%s): maxFiles must be >= 1", i, src.ID)
		}
		if err := src.TargetMode.Validate(); err != nil {
			return fmt.Errorf("sources[%d] (%s): %w", i, src.ID, err)
		}
		if len(src.Include) == 1 && src.Include[0] == "" {
			return fmt.Errorf("sources[%d] (%s): include patterns must not be empty strings", i, src.ID)
		}
		if src.Integrity != nil {
			switch src.Integrity.Type {
			case IntegrityCommit, IntegrityManifest:
			default:
				return fmt.Errorf("sources[%d] (%s): invalid integrity.type %q", i, src.ID, src.Integrity.Type)
			}
		}
	}

	if c.Defaults.MaxBytes != 0 && c.Defaults.MaxBytes < 1 {
		return fmt.Errorf("defaults.maxBytes must be >= 1")
	}
	if c.Defaults.MaxFiles != nil && *c.Defaults.MaxFiles < 1 {
		return fmt.Errorf("defaults.maxFiles must be >= 1")
	}
	if c.Defaults.Depth != 0 && c.Defaults.Depth < 1 {
		return fmt.Errorf("defaults.depth must be >= 1")
	}

	return nil
}
