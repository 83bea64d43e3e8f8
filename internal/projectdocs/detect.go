package projectdocs

import (
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// maxCandidatesPerSlot caps the advisory suggestions per slot.
const maxCandidatesPerSlot = 5

// slotPatterns are tried in order; earlier patterns are stronger signals
// and surface first in the suggestions.
var slotPatterns = map[Slot][]string{
	SlotArchitecture: {
		"ARCHITECTURE.md",
		"architecture.md",
		"docs/**/architecture*.md",
		"docs/adr/**/*.md",
		"README.md",
	},
	SlotRequirements: {
		"REQUIREMENTS.md",
		"requirements.md",
		"docs/**/requirements*.md",
		"docs/**/prd*.md",
		"SPEC.md",
	},
	SlotDesign: {
		"DESIGN.md",
		"design.md",
		"docs/**/design*.md",
		"docs/rfc/**/*.md",
	},
}

// DetectCandidates scans the project for files that look like existing
// documentation for each slot. Purely advisory: the caller shows these as
// linking suggestions, nothing is ever linked automatically.
func DetectCandidates(projectPath string) map[Slot][]string {
	fsys := os.DirFS(projectPath)
	out := make(map[Slot][]string)

	for _, slot := range SlotOrder {
		seen := make(map[string]bool)
		var found []string
		for _, pattern := range slotPatterns[slot] {
			matches, err := doublestar.Glob(fsys, pattern)
			if err != nil {
				continue
			}
			for _, match := range matches {
				if seen[match] {
					continue
				}
				seen[match] = true
				found = append(found, match)
				if len(found) >= maxCandidatesPerSlot {
					break
				}
			}
			if len(found) >= maxCandidatesPerSlot {
				break
			}
		}
		if len(found) > 0 {
			out[slot] = found
		}
	}
	return out
}
