package types

import (
	"fmt"
	"sort"
)

// SetupResult summarizes what a setup run did to the workspace.
type SetupResult struct {
	// CreatedDirs lists directories that were bootstrapped
	CreatedDirs []string

	// Symlinks lists symbolic links that were created, target -> source
	Symlinks map[string]string

	// UpdatedFiles lists files whose generated section was written
	UpdatedFiles []string

	// Downloads lists remote files that were fetched, name -> destination
	Downloads map[string]string

	// Skipped lists steps that had nothing to do, with the reason
	Skipped map[string]string
}

// NewSetupResult returns an empty result with all maps initialized.
func NewSetupResult() *SetupResult {
	return &SetupResult{
		Symlinks:  make(map[string]string),
		Downloads: make(map[string]string),
		Skipped:   make(map[string]string),
	}
}

// Summary renders the result as display lines, one per action, in a
// stable order.
func (r *SetupResult) Summary() []string {
	var lines []string
	for _, dir := range r.CreatedDirs {
		lines = append(lines, "created "+dir)
	}
	for _, target := range sortedKeys(r.Symlinks) {
		lines = append(lines, fmt.Sprintf("linked %s -> %s", target, r.Symlinks[target]))
	}
	for _, file := range r.UpdatedFiles {
		lines = append(lines, "updated "+file)
	}
	for _, name := range sortedKeys(r.Downloads) {
		lines = append(lines, fmt.Sprintf("downloaded %s to %s", name, r.Downloads[name]))
	}
	for _, name := range sortedKeys(r.Skipped) {
		lines = append(lines, fmt.Sprintf("skipped %s (%s)", name, r.Skipped[name]))
	}
	return lines
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
