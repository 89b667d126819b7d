// Package refresolver resolves a ref to a concrete commit under a
// host-allowlist policy, redacting embedded credentials from any surfaced
// error (spec.md §4.4).
//
// Grounded on pkg/source/git.go's exec.Command-based git invocation style,
// now routed through internal/gitproc for the environment hardening.
package refresolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hk9890/docs-cache/internal/gitproc"
	"github.com/hk9890/docs-cache/internal/synerr"
)

// Request describes one resolution.
type Request struct {
	Repo       string
	Ref        string
	AllowHosts []string
	TimeoutMs  int
}

// Result is what a successful resolution yields.
type Result struct {
	Repo           string
	Ref            string
	ResolvedCommit string
}

// Resolver is the injectable seam syncengine depends on (DI per
// spec.md §9): production code uses Default, tests substitute a stub.
type Resolver func(ctx context.Context, req Request) (Result, error)

// Default calls out to `git ls-remote`.
func Default(ctx context.Context, req Request) (Result, error) {
	host, err := hostOf(req.Repo)
	if err != nil {
		return Result{}, synerr.New(synerr.KindUnsupportedRepoURL, "", true, redact(err, req.Repo))
	}

	if !hostAllowed(host, req.AllowHosts) {
		return Result{}, synerr.Newf(synerr.KindHostNotAllowed, "", true,
			"host %q is not in the allowed host list %v", host, req.AllowHosts)
	}

	ref := req.Ref
	if ref == "" {
		ref = "HEAD"
	}

	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	out, err := gitproc.Run(ctx, gitproc.Options{Timeout: timeout}, "ls-remote", req.Repo, ref)
	if err != nil {
		return Result{}, synerr.New(synerr.KindRefUnresolved, "", true, redact(err, req.Repo))
	}

	commit := firstCommit(string(out))
	if commit == "" {
		return Result{}, synerr.Newf(synerr.KindRefUnresolved, "", true,
			"ls-remote for ref %q returned no matching commit", ref)
	}

	return Result{Repo: req.Repo, Ref: ref, ResolvedCommit: commit}, nil
}

func firstCommit(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// sshShorthand matches git@host:path form.
var sshShorthand = regexp.MustCompile(`^[^@/]+@([^:/]+):`)

func hostOf(repo string) (string, error) {
	if m := sshShorthand.FindStringSubmatch(repo); m != nil {
		return strings.ToLower(m[1]), nil
	}
	if strings.HasPrefix(repo, "https://") || strings.HasPrefix(repo, "http://") || strings.HasPrefix(repo, "ssh://") {
		rest := repo
		if idx := strings.Index(rest, "://"); idx >= 0 {
			rest = rest[idx+3:]
		}
		// strip userinfo, if any
		if idx := strings.Index(rest, "@"); idx >= 0 {
			rest = rest[idx+1:]
		}
		// take up to the next '/' or ':'
		end := len(rest)
		for i, c := range rest {
			if c == '/' || c == ':' {
				end = i
				break
			}
		}
		host := rest[:end]
		if host == "" {
			return "", fmt.Errorf("could not extract host from repo url %q", repo)
		}
		return strings.ToLower(host), nil
	}
	return "", fmt.Errorf("unsupported repo url scheme: %q", repo)
}

func hostAllowed(host string, allow []string) bool {
	host = strings.ToLower(host)
	for _, a := range allow {
		if strings.ToLower(a) == host {
			return true
		}
	}
	return false
}

// credentialPattern matches user[:password]@ in a URL, used to redact any
// embedded credentials before an error reaches the caller.
var credentialPattern = regexp.MustCompile(`([a-zA-Z][\w.+-]*)(:([^@/\s]*))?@`)

// redact rewrites every embedded credential (credentialPattern) in err's
// message so secrets never leak into logs or output. The repo argument is
// not consulted; only the pattern decides what is masked.
func redact(err error, repo string) error {
	msg := err.Error()
	msg = credentialPattern.ReplaceAllStringFunc(msg, func(m string) string {
		if strings.Contains(m, ":") {
			return "*****:*****@"
		}
		return "***@"
	})
	return fmt.Errorf("%s", msg)
}
