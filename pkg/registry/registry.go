package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"
)

var (
	taskTypePattern  = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)
	errorCodePattern = regexp.MustCompile(`^[A-Z]+(_[A-Z]+)*$`)
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find looks an activity up by task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks identity fields, uniqueness, naming of task types and BPMN
// error codes, and retry and timeout settings. Schema compilation is left to
// the validation package.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if !categories[a.Category] {
			return fmt.Errorf("activity %s has unknown category %q", a.ID, a.Category)
		}
		if !taskTypePattern.MatchString(a.TaskType) {
			return fmt.Errorf("activity %s task type %q must be lower-case kebab-case", a.ID, a.TaskType)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		taskTypes[a.TaskType] = true

		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q", a.ID, a.Timeout)
			}
		}
		if a.Retries < 0 {
			return fmt.Errorf("activity %s has negative retries %d", a.ID, a.Retries)
		}
		for _, code := range a.BPMNErrors {
			if !errorCodePattern.MatchString(code) {
				return fmt.Errorf("activity %s BPMN error %q must be upper snake case", a.ID, code)
			}
		}
	}
	return nil
}
