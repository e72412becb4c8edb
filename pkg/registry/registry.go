// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/validation"
)

//go:embed activity-registry.json
var builtinRegistry []byte

var (
	defaultOnce sync.Once
	defaultReg  *ActivityRegistry
	defaultErr  error
)

// Default returns the registry shipped with the binary.
func Default() (*ActivityRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(builtinRegistry)
	})
	return defaultReg, defaultErr
}

// MustDefault is Default for package initialisation.
func MustDefault() *ActivityRegistry {
	reg, err := Default()
	if err != nil {
		panic(fmt.Sprintf("builtin activity registry: %v", err))
	}
	return reg
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks that ids and task types are present and unique.
func (r *ActivityRegistry) Validate() error {
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for i, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %d: id and taskType are required", i)
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity id %q", a.ID)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		ids[a.ID] = true
		taskTypes[a.TaskType] = true
	}
	return nil
}

func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// ValidateInput checks a job payload (raw JSON or any Go value) against the
// activity's input schema.
func (a *Activity) ValidateInput(document interface{}) (*validation.ValidationResult, error) {
	if raw, ok := document.([]byte); ok {
		return validation.ValidateJSON(schemaOrNil(a.InputSchema), raw)
	}
	return validation.Validate(schemaOrNil(a.InputSchema), document)
}

func (a *Activity) ValidateOutput(document interface{}) (*validation.ValidationResult, error) {
	return validation.Validate(schemaOrNil(a.OutputSchema), document)
}

func schemaOrNil(s map[string]interface{}) interface{} {
	if len(s) == 0 {
		return nil
	}
	return s
}
