package fileutils

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not parse JSON in %q: %v", path, err)
	}
	return nil
}
