// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/pkg/registry"
)

const defaultRegistryPath = "pkg/registry/activity-registry.json"

func main() {
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)

	// Update command flags
	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	// Validate command flags
	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	// Check command flags
	checkPath := checkCmd.String("path", "", "Path to registry file (default: registry built into the workers)")
	taskType := checkCmd.String("taskType", "", "Task type whose schema the variables are checked against")
	varsFile := checkCmd.String("file", "", "JSON file holding the job variables")
	asOutput := checkCmd.Bool("output", false, "Check against the output schema instead of the input schema")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(*updatePath, *idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkCmd.Parse(os.Args[2:])
		if *taskType == "" || *varsFile == "" {
			fmt.Println("Error: taskType and file are required for check.")
			checkCmd.Usage()
			os.Exit(1)
		}
		ok, err := checkVariables(*checkPath, *taskType, *varsFile, *asOutput)
		if err != nil {
			fmt.Printf("Check failed: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(2)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range reg.Activities {
		if reg.Activities[i].ID != id {
			continue
		}
		found = true
		switch field {
		case "status":
			reg.Activities[i].ImplementationStatus = value
		case "version":
			reg.Activities[i].Version = value
		case "displayName":
			reg.Activities[i].DisplayName = value
		case "description":
			reg.Activities[i].Description = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			reg.Activities[i].Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			reg.Activities[i].Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}

	if !found {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	for _, activity := range reg.Activities {
		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if len(activity.InputSchema) == 0 {
			return fmt.Errorf("activity %s has no input schema", activity.ID)
		}
		if _, err := time.ParseDuration(activity.Timeout); err != nil {
			return fmt.Errorf("activity %s has invalid timeout %q", activity.ID, activity.Timeout)
		}
		// Only compile errors matter here.
		if _, err := activity.ValidateInput(map[string]interface{}{}); err != nil {
			return fmt.Errorf("activity %s input schema: %w", activity.ID, err)
		}
		if _, err := activity.ValidateOutput(map[string]interface{}{}); err != nil {
			return fmt.Errorf("activity %s output schema: %w", activity.ID, err)
		}
	}

	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

// checkVariables validates a job-variables file and prints every schema
// violation. It returns false when the document does not conform.
func checkVariables(path, taskType, file string, output bool) (bool, error) {
	var (
		reg *registry.ActivityRegistry
		err error
	)
	if path == "" {
		reg, err = registry.Default()
	} else {
		reg, err = registry.LoadRegistry(path)
	}
	if err != nil {
		return false, fmt.Errorf("failed to load registry: %w", err)
	}

	activity, ok := reg.Find(taskType)
	if !ok {
		return false, fmt.Errorf("no activity registered for task type %s", taskType)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return false, err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("decode %s: %w", file, err)
	}

	check := activity.ValidateInput
	if output {
		check = activity.ValidateOutput
	}
	result, err := check(doc)
	if err != nil {
		return false, err
	}
	if result.Valid {
		fmt.Printf("%s conforms to %s.\n", file, taskType)
		return true, nil
	}
	for _, e := range result.Errors {
		fmt.Printf("  %s: %s (%s)\n", e.Field, e.Message, e.Code)
	}
	return false, nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  update    Update an existing activity's field
  validate  Validate the registry file and compile every schema
  check     Validate a job-variables file against an activity schema
  help      Show this help message

Examples:
  registry-updater update -id match-rfq-suppliers -field timeout -value 20s
  registry-updater validate -path pkg/registry/activity-registry.json
  registry-updater check -taskType match-rfq-suppliers -file testdata/rfq.json`)
}
