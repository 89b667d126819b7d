package docsconfig

import (
	"fmt"

	"github.com/hk9890/docs-cache/internal/pathsafety"
)

// Resolve merges Config.Defaults and the built-in defaults into every
// source, producing fully materialized ResolvedSource values. configPath
// is the absolute path of the config file, used to resolve cacheDir and
// targetDir.
func (c *Config) Resolve(configPath string) ([]ResolvedSource, error) {
	out := make([]ResolvedSource, 0, len(c.Sources))
	for i := range c.Sources {
		rs, err := c.resolveOne(&c.Sources[i], configPath)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", c.Sources[i].ID, err)
		}
		out = append(out, rs)
	}
	return out, nil
}

func (c *Config) resolveOne(src *SourceSpec, configPath string) (ResolvedSource, error) {
	rs := ResolvedSource{
		ID:   src.ID,
		Repo: src.Repo,
	}

	rs.Ref = firstNonEmpty(src.Ref, c.Defaults.Ref, "HEAD")

	rs.Include = firstNonEmptySlice(src.Include, c.Defaults.Include, defaultInclude)
	rs.Exclude = firstNonEmptySlice(src.Exclude, c.Defaults.Exclude, nil)

	rs.Depth = firstNonZeroInt(src.Depth, c.Defaults.Depth, 1)

	rs.Required = firstNonNilBool(src.Required, c.Defaults.Required, true)

	rs.MaxBytes = firstNonZeroInt64(src.MaxBytes, c.Defaults.MaxBytes, defaultMaxBytes)

	rs.MaxFiles = 0
	if src.MaxFiles != nil {
		rs.MaxFiles = *src.MaxFiles
	} else if c.Defaults.MaxFiles != nil {
		rs.MaxFiles = *c.Defaults.MaxFiles
	}

	rs.TOC = firstNonNilBool(src.TOC, c.Defaults.TOC, true)
	rs.UnwrapSingleRootDir = firstNonNilBool(src.UnwrapSingleRootDir, c.Defaults.UnwrapSingleRootDir, true)
	rs.IgnoreHidden = firstNonNilBool(src.IgnoreHidden, c.Defaults.IgnoreHidden, false)

	// spec.md §3: allowHosts is "only applied at defaults scope" — a
	// per-source override, if present, is accepted by validation but has
	// no effect on resolution; only the defaults/global value matters.
	rs.AllowHosts = firstNonEmptySlice(nil, c.Defaults.AllowHosts, defaultAllowHosts)

	// targetMode precedence: source > config.targetMode > OS default.
	// Defaults has no targetMode field, so there is no defaults-level step.
	rs.TargetMode = firstNonEmptyMode(src.TargetMode, c.TargetMode, osDefaultTargetMode())

	if src.TargetDir != "" {
		resolvedTarget, err := pathsafety.ResolveTargetDir(configPath, src.TargetDir)
		if err != nil {
			return ResolvedSource{}, err
		}
		rs.TargetDir = resolvedTarget
	}

	rs.Integrity = src.Integrity

	return rs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(slices ...[]string) []string {
	for _, s := range slices {
		if len(s) > 0 {
			return append([]string(nil), s...)
		}
	}
	return nil
}

func firstNonZeroInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroInt64(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonNilBool(source *bool, fallback *bool, def bool) bool {
	if source != nil {
		return *source
	}
	if fallback != nil {
		return *fallback
	}
	return def
}

func firstNonEmptyMode(values ...TargetMode) TargetMode {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
