package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// manifest is the on-disk shape of artifacts/<run_id>/manifest.json.
type manifest struct {
	Entries []ArtifactEntry `json:"entries"`
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.dir, "artifacts", runID)
}

func (s *Store) manifestPath(runID string) string {
	return filepath.Join(s.runDir(runID), "manifest.json")
}

func (s *Store) backupPath(runID, hash string) string {
	return filepath.Join(s.runDir(runID), "backup", hash)
}

// LoadManifest returns the Artifact Entries recorded for a run. A run with
// no manifest yet returns an empty slice, not an error.
func (s *Store) LoadManifest(runID string) ([]ArtifactEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadManifestLocked(runID)
}

func (s *Store) loadManifestLocked(runID string) ([]ArtifactEntry, error) {
	data, err := os.ReadFile(s.manifestPath(runID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read manifest %s: %w", runID, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("state: decode manifest %s: %w", runID, err)
	}
	return m.Entries, nil
}

func (s *Store) saveManifestLocked(runID string, entries []ArtifactEntry) error {
	if err := os.MkdirAll(filepath.Join(s.runDir(runID), "backup"), 0o755); err != nil {
		return fmt.Errorf("state: mkdir artifacts/%s: %w", runID, err)
	}
	data, err := json.MarshalIndent(manifest{Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal manifest %s: %w", runID, err)
	}
	return os.WriteFile(s.manifestPath(runID), data, 0o644)
}

// RecordWrite appends one Artifact Entry for a write to path, optionally
// backing up preWriteContent (nil when the path did not previously exist)
// so rollback can restore it. It returns the new entry.
func (s *Store) RecordWrite(runID, agentID, path string, newContent, preWriteContent []byte, supersedes string) (ArtifactEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadManifestLocked(runID)
	if err != nil {
		return ArtifactEntry{}, err
	}

	sum := sha256.Sum256(newContent)
	entry := ArtifactEntry{
		Path:             path,
		SHA256:           hex.EncodeToString(sum[:]),
		ProducingRunID:   runID,
		ProducingAgentID: agentID,
		CreatedAt:        time.Now().UTC(),
	}

	if preWriteContent != nil {
		backupSum := sha256.Sum256(preWriteContent)
		hash := hex.EncodeToString(backupSum[:])
		if err := os.MkdirAll(filepath.Join(s.runDir(runID), "backup"), 0o755); err != nil {
			return ArtifactEntry{}, fmt.Errorf("state: mkdir backup dir: %w", err)
		}
		if err := os.WriteFile(s.backupPath(runID, hash), preWriteContent, 0o644); err != nil {
			return ArtifactEntry{}, fmt.Errorf("state: write backup: %w", err)
		}
		entry.BackupHash = hash
	}

	if supersedes != "" {
		for i := range entries {
			if entries[i].Path == path && entries[i].SupersededBy == "" && entries[i].SHA256 == supersedes {
				entries[i].SupersededBy = entry.SHA256
			}
		}
	}

	entries = append(entries, entry)
	if err := s.saveManifestLocked(runID, entries); err != nil {
		return ArtifactEntry{}, err
	}
	return entry, nil
}

// ReadBackup returns the content backed up under hash for runID.
func (s *Store) ReadBackup(runID, hash string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.ReadFile(s.backupPath(runID, hash))
}

// MarkAllSuperseded marks every non-superseded entry for runID as
// superseded (used by rollback, which never deletes manifest entries).
func (s *Store) MarkAllSuperseded(runID, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadManifestLocked(runID)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].SupersededBy == "" {
			entries[i].SupersededBy = marker
		}
	}
	return s.saveManifestLocked(runID, entries)
}
