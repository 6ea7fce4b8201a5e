package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

// ErrCheckpointMismatch is returned when a checkpoint was written for a
// different plugin or configuration.
var ErrCheckpointMismatch = errors.New("checkpoint belongs to a different plugin or configuration")

// CheckpointManager manages checkpoint state for resumable migrations
type CheckpointManager struct {
	path string
	mu   sync.Mutex
}

// NewCheckpointManager creates a new checkpoint manager
func NewCheckpointManager(path string) *CheckpointManager {
	return &CheckpointManager{
		path: path,
	}
}

// Path returns the checkpoint file location
func (c *CheckpointManager) Path() string {
	return c.path
}

// Load loads the checkpoint state from disk
func (c *CheckpointManager) Load() (*models.MigrationState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}

	var state models.MigrationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", c.path, err)
	}

	return &state, nil
}

// LoadMatching loads the checkpoint only if it was written for plugin with
// the same configuration fingerprint. A missing file yields (nil, nil).
func (c *CheckpointManager) LoadMatching(plugin, configHash string) (*models.MigrationState, error) {
	if !c.Exists() {
		return nil, nil
	}
	state, err := c.Load()
	if err != nil {
		return nil, err
	}
	if state.Plugin != plugin || state.ConfigHash != configHash {
		return nil, fmt.Errorf("%w: %s was written for %s", ErrCheckpointMismatch, c.path, state.Plugin)
	}
	return state, nil
}

// Save writes the state to disk, replacing the file atomically
func (c *CheckpointManager) Save(state *models.MigrationState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".checkpoint-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// Exists checks if a checkpoint file exists
func (c *CheckpointManager) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// Delete removes the checkpoint file
func (c *CheckpointManager) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Exists() {
		return nil
	}
	return os.Remove(c.path)
}
