// Package scratch manages the job directories in which models execute.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"simflow/domain/core"
	"simflow/domain/model"
)

// Persistency decides which job directories survive an execution
type Persistency string

const (
	DeleteIfSuccessful Persistency = "DeleteIfSuccessful"
	DeleteIfFaulty     Persistency = "DeleteIfFaulty"
	DeleteAlways       Persistency = "DeleteAlways"
	Keep               Persistency = "Keep"
)

// ParsePersistency validates a persistency policy name
func ParsePersistency(s string) (Persistency, error) {
	switch p := Persistency(s); p {
	case DeleteIfSuccessful, DeleteIfFaulty, DeleteAlways, Keep:
		return p, nil
	case "":
		return DeleteIfSuccessful, nil
	}
	return "", fmt.Errorf("unknown scratch persistency %q", s)
}

// Naming selects how job directories are named
type Naming string

const (
	Numbered Naming = "Numbered"
	UUID     Naming = "UUID"
)

// DefaultRoot is the scratch root used when none is configured
const DefaultRoot = "default_scratch/"

const lockFile = ".simflow.lock"

// Settings configures a DirectoryScratch
type Settings struct {
	Root        string      `yaml:"directory_scratch_root" json:"directory_scratch_root"`
	JobName     string      `yaml:"job_name" json:"job_name"`
	Persistency Persistency `yaml:"directory_scratch_persistency" json:"directory_scratch_persistency"`
	Naming      Naming      `yaml:"directory_naming_method" json:"directory_naming_method"`
}

// DirectoryScratch creates the job directories of one model and load case
// under {root}/{model}/{load_case}/
type DirectoryScratch struct {
	settings Settings
	parent   string
	job      string
}

// New creates a scratch for a model and load case. The directories are
// created lazily by CreateJobDirectory.
func New(settings Settings, modelName, loadCase string) (*DirectoryScratch, error) {
	if settings.Root == "" {
		settings.Root = DefaultRoot
	}
	p, err := ParsePersistency(string(settings.Persistency))
	if err != nil {
		return nil, err
	}
	settings.Persistency = p
	if settings.Naming == "" {
		settings.Naming = Numbered
	}
	if settings.Naming != Numbered && settings.Naming != UUID {
		return nil, fmt.Errorf("unknown directory naming method %q", settings.Naming)
	}
	root, err := filepath.Abs(settings.Root)
	if err != nil {
		return nil, err
	}
	settings.Root = root
	return &DirectoryScratch{
		settings: settings,
		parent:   filepath.Join(root, modelName, loadCase),
	}, nil
}

// Root returns the absolute scratch root
func (s *DirectoryScratch) Root() string { return s.settings.Root }

// Parent returns the directory holding the job directories
func (s *DirectoryScratch) Parent() string { return s.parent }

// Persistency returns the active policy
func (s *DirectoryScratch) Persistency() Persistency { return s.settings.Persistency }

// JobDirectory returns the current job directory, empty before creation
func (s *DirectoryScratch) JobDirectory() string { return s.job }

// CreateJobDirectory creates a new job directory. A configured job name is
// used as is; otherwise directories are numbered 1, 2, ... under a file
// lock, or named with a fresh uuid.
func (s *DirectoryScratch) CreateJobDirectory() (string, error) {
	if err := os.MkdirAll(s.parent, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	var name string
	switch {
	case s.settings.JobName != "":
		name = s.settings.JobName
	case s.settings.Naming == UUID:
		name = core.NewJobName().String()
	default:
		lock := flock.New(filepath.Join(s.parent, lockFile))
		if err := lock.Lock(); err != nil {
			return "", fmt.Errorf("failed to lock %s: %w", s.parent, err)
		}
		defer lock.Unlock()
		next, err := nextNumber(s.parent)
		if err != nil {
			return "", err
		}
		name = strconv.Itoa(next)
	}

	dir := filepath.Join(s.parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create job directory: %w", err)
	}
	s.job = dir
	return dir, nil
}

func nextNumber(parent string) (int, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// DeleteJobDirectory removes the current job directory; it is a no-op
// before creation
func (s *DirectoryScratch) DeleteJobDirectory() error {
	if s.job == "" {
		return nil
	}
	if err := os.RemoveAll(s.job); err != nil {
		return fmt.Errorf("failed to delete job directory: %w", err)
	}
	s.job = ""
	return nil
}

// EnforcePersistencyPolicy deletes the job directory according to the
// policy and the error code of the execution. It reports whether the
// directory was deleted.
func (s *DirectoryScratch) EnforcePersistencyPolicy(errorCode int) (bool, error) {
	failed := errorCode != model.ErrorCodeSuccess
	var remove bool
	switch s.settings.Persistency {
	case DeleteAlways:
		remove = true
	case DeleteIfSuccessful:
		remove = !failed
	case DeleteIfFaulty:
		remove = failed
	}
	if !remove || s.job == "" {
		return false, nil
	}
	return true, s.DeleteJobDirectory()
}

// Clean removes every job directory below root. It returns the number of
// removed model directories.
func Clean(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
