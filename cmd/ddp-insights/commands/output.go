package commands

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Output formats of the commands printing data.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type formatConfig struct {
	Format string `mapstructure:"format"`
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("format must be either %s or %s, got %q", formatJSON, formatYAML, format)
}

// printValue writes v to out in format.
func printValue(out io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("could not encode output: %v", err)
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("could not encode output: %v", err)
		}
		return enc.Close()
	}
	return checkFormat(format)
}

// printJSON writes the already encoded data to out, indented.
func printJSON(out io.Writer, data []byte) error {
	var b bytes.Buffer
	if err := json.Indent(&b, data, "", "  "); err != nil {
		return fmt.Errorf("could not indent output: %v", err)
	}
	b.WriteByte('\n')
	_, err := b.WriteTo(out)
	return err
}
