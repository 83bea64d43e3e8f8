// Package conversation persists per-checkout development state: which
// workflow is running, which phase it is in, and the audit trail of tool
// interactions. Identity is the pair (project path, git branch); every
// branch of a project gets its own conversation.
package conversation

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const maxSlugLen = 30

// Slugify reduces a path segment or branch name to a filesystem- and
// id-safe token: lowercase alphanumerics separated by single hyphens,
// truncated at a word boundary where possible.
func Slugify(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unnamed"
	}

	lowered := strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	prevHyphen := false
	for _, r := range lowered {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-' || r == '/' || r == '.':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "unnamed"
	}
	if len(slug) <= maxSlugLen {
		return slug
	}

	truncated := slug[:maxSlugLen]
	if idx := strings.LastIndex(truncated, "-"); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated
}

// ID derives the stable conversation identifier for a checkout. The prefix
// keeps ids readable in logs and the database; the hash suffix keeps two
// checkouts with colliding slugs apart.
func ID(projectPath, branch string) string {
	sum := sha256.Sum256([]byte(projectPath + "\n" + branch))
	suffix := hex.EncodeToString(sum[:])[:8]
	return Slugify(filepath.Base(projectPath)) + "-" + Slugify(branch) + "-" + suffix
}
