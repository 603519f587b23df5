package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ResultID   ID
	JobName    ID
	Experiment ID
)

func (id ResultID) String() string   { return ID(id).String() }
func (id JobName) String() string    { return ID(id).String() }
func (id Experiment) String() string { return ID(id).String() }

// NewResultID creates a time-ordered archived result identifier
func NewResultID() ResultID {
	return ResultID(NewID())
}

// NewJobName generates a unique job name, used when none is configured
func NewJobName() JobName {
	return JobName(NewID())
}

// ParseResultID parses a string into ResultID
func ParseResultID(s string) (ResultID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("result ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid result ID %q: %w", s, err)
	}
	return ResultID(s), nil
}

// ParseExperiment parses a string into Experiment
func ParseExperiment(s string) (Experiment, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("experiment name cannot be empty")
	}
	return Experiment(s), nil
}
