// Package roster reads participant lists from YAML, JSON, CSV or plain text
// files.
package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alienxp03/santa/internal/core"
)

// Format identifies a roster file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

// File is the document form of a roster. A bare list of participants is
// accepted as well.
type File struct {
	Name         string             `json:"name,omitempty" yaml:"name,omitempty"`
	Participants []core.Participant `json:"participants" yaml:"participants"`
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".txt":
		return FormatText
	default:
		return FormatYAML
	}
}

// Load reads and validates the roster at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	file, err := Parse(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse decodes a roster and validates it. Names are trimmed.
func Parse(r io.Reader, format Format) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var file *File
	switch format {
	case FormatJSON:
		file, err = decodeJSON(data)
	case FormatYAML:
		file, err = decodeYAML(data)
	case FormatCSV:
		file, err = parseCSV(data)
	case FormatText:
		file, err = parseText(data)
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	for i := range file.Participants {
		p := &file.Participants[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Contact = strings.TrimSpace(p.Contact)
	}
	if err := core.ValidateRoster(file.Participants); err != nil {
		return nil, err
	}
	return file, nil
}

func decodeJSON(data []byte) (*File, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &File{}, nil
	}

	if trimmed[0] == '[' {
		var participants []core.Participant
		if err := json.Unmarshal(trimmed, &participants); err != nil {
			return nil, fmt.Errorf("failed to parse roster: %w", err)
		}
		return &File{Participants: participants}, nil
	}

	var file File
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return &file, nil
}

func decodeYAML(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &File{}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		var participants []core.Participant
		if err := root.Decode(&participants); err != nil {
			return nil, fmt.Errorf("failed to parse roster: %w", err)
		}
		return &File{Participants: participants}, nil
	}

	var file File
	if err := root.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return &file, nil
}

// parseCSV reads name, contact, wishes records. Quoted fields may hold
// commas. A first record whose first field is "name" is a header.
func parseCSV(data []byte) (*File, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	file := &File{}
	for first := true; ; first = false {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse roster: %w", err)
		}
		if first && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		p := core.Participant{Name: record[0]}
		if len(record) > 1 {
			p.Contact = record[1]
		}
		if len(record) > 2 {
			p.Wishes = strings.TrimSpace(record[2])
		}
		file.Participants = append(file.Participants, p)
	}
	return file, nil
}

// parseText reads one participant per line as "name[, contact[, wishes]]".
// Blank lines and lines starting with # are skipped.
func parseText(data []byte) (*File, error) {
	file := &File{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, ",", 3)
		p := core.Participant{Name: fields[0]}
		if len(fields) > 1 {
			p.Contact = fields[1]
		}
		if len(fields) > 2 {
			p.Wishes = strings.TrimSpace(fields[2])
		}
		file.Participants = append(file.Participants, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return file, nil
}
