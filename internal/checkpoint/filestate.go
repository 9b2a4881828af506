package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FileState implements Journal using a single YAML file holding the most
// recent run. Designed for CI jobs and containers without a writable data dir.
type FileState struct {
	path  string
	mu    sync.RWMutex
	state *fileStateData
}

// fileStateData is the YAML structure for the state file.
type fileStateData struct {
	RunID       string     `yaml:"run_id"`
	StartedAt   time.Time  `yaml:"started_at"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
	Status      string     `yaml:"status"` // running, success, failed, cancelled
	Direction   string     `yaml:"direction"`
	Database    string     `yaml:"database"`
	Error       string     `yaml:"error,omitempty"`
	ConfigHash  string     `yaml:"config_hash,omitempty"`
	ProfileName string     `yaml:"profile_name,omitempty"`
	ConfigPath  string     `yaml:"config_path,omitempty"`
	Steps       []Step     `yaml:"steps"`
}

// NewFileState creates a file-based journal.
// If the file exists, it loads the existing state.
func NewFileState(path string) (*FileState, error) {
	fs := &FileState{
		path:  path,
		state: &fileStateData{},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := yaml.Unmarshal(data, fs.state); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return fs, nil
}

// save writes the current state to the YAML file.
func (fs *FileState) save() error {
	data, err := yaml.Marshal(fs.state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.WriteFile(fs.path, data, 0600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// CreateRun replaces the stored run with a new one.
func (fs *FileState) CreateRun(id, direction, database string, config any, profileName, configPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	// Config hash lets operators spot config drift between runs
	configJSON, _ := json.Marshal(config)
	hash := sha256.Sum256(configJSON)

	fs.state = &fileStateData{
		RunID:       id,
		StartedAt:   time.Now(),
		Status:      StatusRunning,
		Direction:   direction,
		Database:    database,
		ConfigHash:  hex.EncodeToString(hash[:8]),
		ProfileName: profileName,
		ConfigPath:  configPath,
	}

	return fs.save()
}

// CompleteRun marks the run as complete.
func (fs *FileState) CompleteRun(id string, status string, errorMsg string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.checkRun(id); err != nil {
		return err
	}

	now := time.Now()
	fs.state.Status = status
	fs.state.CompletedAt = &now
	fs.state.Error = errorMsg

	return fs.save()
}

// RecordStep appends a step to the current run.
func (fs *FileState) RecordStep(runID string, step Step) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.checkRun(runID); err != nil {
		return err
	}
	if step.RecordedAt.IsZero() {
		step.RecordedAt = time.Now()
	}
	fs.state.Steps = append(fs.state.Steps, step)
	return fs.save()
}

// GetSteps returns the steps of the current run.
func (fs *FileState) GetSteps(runID string) ([]Step, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if fs.state.RunID != runID {
		return nil, nil
	}
	steps := make([]Step, len(fs.state.Steps))
	copy(steps, fs.state.Steps)
	return steps, nil
}

// GetAllRuns returns the stored run, if any.
func (fs *FileState) GetAllRuns() ([]Run, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if fs.state.RunID == "" {
		return nil, nil
	}
	return []Run{fs.run()}, nil
}

// GetRunByID returns the stored run when its ID matches.
func (fs *FileState) GetRunByID(runID string) (*Run, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if fs.state.RunID == "" || fs.state.RunID != runID {
		return nil, nil
	}
	r := fs.run()
	return &r, nil
}

// Close is a no-op; every change is written immediately.
func (fs *FileState) Close() error {
	return nil
}

// Path returns the state file location.
func (fs *FileState) Path() string {
	return fs.path
}

func (fs *FileState) checkRun(id string) error {
	if fs.state.RunID != id {
		return fmt.Errorf("run ID mismatch: expected %s, got %s", fs.state.RunID, id)
	}
	return nil
}

func (fs *FileState) run() Run {
	return Run{
		ID:          fs.state.RunID,
		StartedAt:   fs.state.StartedAt,
		CompletedAt: fs.state.CompletedAt,
		Status:      fs.state.Status,
		Direction:   fs.state.Direction,
		Database:    fs.state.Database,
		ProfileName: fs.state.ProfileName,
		ConfigPath:  fs.state.ConfigPath,
		Error:       fs.state.Error,
	}
}
