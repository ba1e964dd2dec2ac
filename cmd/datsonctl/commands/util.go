package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// loadRequest loads a request from the input file or stdin. JSON is valid
// YAML, so YAML decoding covers both unless the file says .json.
func loadRequest(v any) error {
	var (
		data []byte
		err  error
	)
	if inputFile == "" || inputFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(inputFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	if strings.ToLower(filepath.Ext(inputFile)) == ".json" {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.UseJSONUnmarshaler()); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}
	return nil
}

// printJSON writes v as indented JSON to the output file or stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')

	if outputFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return saveToFile(outputFile, data)
}

// saveToFile saves data to a file
func saveToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
