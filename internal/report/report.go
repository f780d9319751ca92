// Package report serializes packs, briefs and KPI snapshots for export.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/insights"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/kpi"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/output"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/pack"
)

// Format is an export serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts json, yaml/yml and toml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (want json, yaml or toml)", s)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Report bundles everything one CLI run produced for a scope.
type Report struct {
	Scope       string                  `json:"scope"`
	GeneratedAt time.Time               `json:"generatedAt"`
	KPIs        *kpi.Snapshot           `json:"kpis,omitempty"`
	Packs       []pack.TrendInsightPack `json:"packs,omitempty"`
	Brief       *Brief                  `json:"brief,omitempty"`
}

// Brief is the operational summary for a session.
type Brief struct {
	Lines      []string             `json:"lines"`
	Changes    []string             `json:"changes"`
	Actions    []insights.Action    `json:"actions"`
	Snapshot   insights.Snapshot    `json:"snapshot"`
	Health     insights.Health      `json:"health"`
	Projection *insights.Projection `json:"projection,omitempty"`
	WhatIf     *insights.WhatIf     `json:"whatIf,omitempty"`
}

// Marshal renders v in format. Output is deterministic for equal inputs.
// TOML needs a table at the top level, so other values are wrapped under
// an "items" key.
func Marshal(v interface{}, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := output.DeterministicEncodeIndented(v, "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML, FormatTOML:
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}

	tree, err := output.Normalize(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if format == FormatYAML {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return buf.Bytes(), nil
	}

	table, ok := tree.(map[string]interface{})
	if !ok {
		table = map[string]interface{}{"items": tree}
	}
	if err := toml.NewEncoder(&buf).Encode(table); err != nil {
		return nil, fmt.Errorf("failed to encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders v to w.
func Write(w io.Writer, v interface{}, format Format) error {
	data, err := Marshal(v, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile renders v to path, choosing the format from its extension.
func WriteFile(path string, v interface{}, format Format) error {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return err
		}
		format = f
	}
	data, err := Marshal(v, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
