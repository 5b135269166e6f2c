package snapshot

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff of two snapshots' pretty-printed documents.
// It is a presentation aid for comparing captures, not a merge mechanism.
func Diff(a, b *Snapshot) (string, error) {
	aj, err := Encode(a, true)
	if err != nil {
		return "", err
	}
	bj, err := Encode(b, true)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(aj) + "\n"),
		B:        difflib.SplitLines(string(bj) + "\n"),
		FromFile: a.ID,
		ToFile:   b.ID,
		Context:  3,
	})
}

// Summary returns a one-line description of a snapshot's contents.
func Summary(s *Snapshot) string {
	channels := 0
	s.Channels.Walk(func(Channel) { channels++ })
	return strings.Join([]string{
		s.Name,
		fmt.Sprintf("%d roles", len(s.Roles)),
		fmt.Sprintf("%d categories", len(s.Channels.Categories)),
		fmt.Sprintf("%d channels", channels),
		fmt.Sprintf("%d emojis", len(s.Emojis)),
	}, ", ")
}
