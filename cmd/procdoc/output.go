package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v2"
)

type outputFmt string

const (
	outputYAML outputFmt = "yaml"
	outputJSON outputFmt = "json"
)

var currentOutput = outputYAML

func setOutputFormat(format string) {
	switch format {
	case "json":
		currentOutput = outputJSON
	default:
		currentOutput = outputYAML
	}
}

// output writes data to stdout in the selected format. YAML output
// round-trips through JSON so struct json tags drive the field names.
func output(data any) error {
	return outputTo(os.Stdout, currentOutput, data)
}

func outputTo(w io.Writer, format outputFmt, data any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case outputYAML:
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(jsonBytes, &generic); err != nil {
			return err
		}
		return yaml.NewEncoder(w).Encode(generic)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
