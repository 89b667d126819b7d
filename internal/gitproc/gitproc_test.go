package gitproc

import (
	"context"
	"strings"
	"testing"
)

func skipIfNoGit(t *testing.T) {
	t.Helper()
	if err := CheckAvailable(); err != nil {
		t.Skip("git not available on PATH")
	}
}

func TestRunVersion(t *testing.T) {
	skipIfNoGit(t)

	out, err := Run(context.Background(), Options{}, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "git version") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestHardenedEnvForcesFlags(t *testing.T) {
	env := hardenedEnv(nil)
	want := []string{"GIT_TERMINAL_PROMPT=0", "GIT_CONFIG_NOSYSTEM=1", "GIT_CONFIG_NOGLOBAL=1"}
	for _, w := range want {
		found := false
		for _, e := range env {
			if e == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("hardened env missing %q", w)
		}
	}
}

func TestGlobalFlagsFileProtocol(t *testing.T) {
	denied := globalFlags(false)
	if !containsPair(denied, "protocol.file.allow=never") {
		t.Errorf("expected protocol.file.allow=never, got %v", denied)
	}

	allowed := globalFlags(true)
	if !containsPair(allowed, "protocol.file.allow=always") {
		t.Errorf("expected protocol.file.allow=always, got %v", allowed)
	}
}

func containsPair(args []string, value string) bool {
	for _, a := range args {
		if a == value {
			return true
		}
	}
	return false
}

func TestIsProgressLine(t *testing.T) {
	if !isProgressLine("Receiving objects:  50% (5/10)") {
		t.Error("expected progress line to match")
	}
	if isProgressLine("fatal: repository not found") {
		t.Error("did not expect fatal line to match")
	}
}
