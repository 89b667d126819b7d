// Command docs-cache is the thin CLI surface over internal/syncengine
// (spec.md §6.5). Per spec.md §1, the interactive init prompt, the
// live-TUI progress renderer, and JSON-schema generation are explicitly
// external collaborators and are not implemented here.
package main

import "github.com/hk9890/docs-cache/cmd"

func main() {
	cmd.Execute()
}
