package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// writeOutput prints the version alone for text output so that it can be
// captured by scripts, or the full report for json and yaml. Text output is
// empty when no version applies.
func writeOutput(w io.Writer, format string, out report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		if out.version == nil {
			return nil
		}
		_, err := fmt.Fprintln(w, out.version)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
