package object

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that could escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// SnapshotKey returns the key of an archived result snapshot. Each
// recomputation of an assessment gets its own generation so earlier
// snapshots stay addressable.
func SnapshotKey(territoryID, assessmentID string, generation int) (string, error) {
	territory, err := sanitizeSegment(territoryID)
	if err != nil {
		return "", err
	}
	assessment, err := sanitizeSegment(assessmentID)
	if err != nil {
		return "", err
	}
	return path.Join("results", territory, assessment, fmt.Sprintf("gen-%04d.json", generation)), nil
}

// sanitizeSegment removes path separators and rejects traversal patterns.
func sanitizeSegment(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidKey
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", ErrInvalidKey
	}
	return s, nil
}
