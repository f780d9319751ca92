// Package dataset loads incident exports produced by the ingestion tooling
// and narrows them to the filtered dataset the analytics consume.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/incident"
)

// Format is a dataset serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the issues export written by ingestion.
type Document struct {
	SchemaVersion string   `json:"schema_version" yaml:"schema_version"`
	IngestedAt    string   `json:"ingested_at" yaml:"ingested_at"`
	Query         string   `json:"query,omitempty" yaml:"query,omitempty"`
	Issues        []Record `json:"issues" yaml:"issues"`
}

// Record is one normalized issue as serialized. Timestamps stay strings so
// a malformed value degrades to "unknown" instead of rejecting the file.
type Record struct {
	Key        string   `json:"key" yaml:"key"`
	Summary    string   `json:"summary" yaml:"summary"`
	Status     string   `json:"status" yaml:"status"`
	Type       string   `json:"type,omitempty" yaml:"type,omitempty"`
	Priority   string   `json:"priority" yaml:"priority"`
	Created    string   `json:"created,omitempty" yaml:"created,omitempty"`
	Updated    string   `json:"updated,omitempty" yaml:"updated,omitempty"`
	Resolved   string   `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Assignee   string   `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Labels     []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Components []string `json:"components,omitempty" yaml:"components,omitempty"`
	URL        string   `json:"url,omitempty" yaml:"url,omitempty"`
	Country    string   `json:"country,omitempty" yaml:"country,omitempty"`
	SourceType string   `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	SourceID   string   `json:"source_id,omitempty" yaml:"source_id,omitempty"`
}

// FormatOf infers the serialization and compression of path from its
// extensions, e.g. "issues.json.zst" is JSON compressed with zstd.
func FormatOf(path string) (format Format, compression string, err error) {
	name := strings.ToLower(filepath.Base(path))
	switch ext := filepath.Ext(name); ext {
	case ".zst", ".gz":
		compression = strings.TrimPrefix(ext, ".")
		name = strings.TrimSuffix(name, ext)
	}
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compression, nil
	case ".yaml", ".yml":
		return FormatYAML, compression, nil
	default:
		return "", "", fmt.Errorf("unsupported dataset file %q (want .json, .yaml or .yml, optionally .gz or .zst)", filepath.Base(path))
	}
}

// Load reads and decodes the dataset file at path.
func Load(path string) (*Document, error) {
	format, compression, err := FormatOf(path)
	if err != nil {
		return nil, radarerrors.New(radarerrors.DatasetInvalid, "cannot load dataset", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, radarerrors.New(radarerrors.DatasetInvalid, "cannot open dataset", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch compression {
	case "gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, radarerrors.New(radarerrors.DatasetInvalid, "cannot read gzip dataset", err)
		}
		defer gz.Close()
		r = gz
	case "zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, radarerrors.New(radarerrors.DatasetInvalid, "cannot read zstd dataset", err)
		}
		defer dec.Close()
		r = dec
	}

	doc, err := Decode(r, format)
	if err != nil {
		return nil, radarerrors.New(radarerrors.DatasetInvalid, fmt.Sprintf("cannot decode %s", filepath.Base(path)), err)
	}
	return doc, nil
}

// Decode parses a document. A bare list of records is accepted as well as
// the full {issues: [...]} document.
func Decode(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Document{}, nil
	}

	doc := &Document{}
	switch format {
	case FormatJSON:
		if data[0] == '[' {
			err = json.Unmarshal(data, &doc.Issues)
		} else {
			err = json.Unmarshal(data, doc)
		}
	case FormatYAML:
		var peek interface{}
		if err = yaml.Unmarshal(data, &peek); err != nil {
			break
		}
		if _, isList := peek.([]interface{}); isList {
			err = yaml.Unmarshal(data, &doc.Issues)
		} else {
			err = yaml.Unmarshal(data, doc)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Incidents converts the records, skipping rows without a key.
func (d *Document) Incidents() incident.Dataset {
	out := make(incident.Dataset, 0, len(d.Issues))
	for _, r := range d.Issues {
		if strings.TrimSpace(r.Key) == "" {
			continue
		}
		inc := incident.Incident{
			Key:        strings.TrimSpace(r.Key),
			Summary:    r.Summary,
			Status:     r.Status,
			Type:       r.Type,
			Priority:   r.Priority,
			Assignee:   r.Assignee,
			Components: r.Components,
			Labels:     r.Labels,
			Country:    r.Country,
			SourceType: r.SourceType,
			SourceID:   r.SourceID,
			URL:        r.URL,
		}
		if t, ok := ParseTime(r.Created); ok {
			inc.Created = t
		}
		if t, ok := ParseTime(r.Updated); ok {
			inc.Updated = &t
		}
		if t, ok := ParseTime(r.Resolved); ok {
			inc.Resolved = &t
		}
		out = append(out, inc)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700", // Jira
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts the timestamp layouts trackers export. Values without a
// zone are read as UTC. ok is false for blank or unparseable input.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
