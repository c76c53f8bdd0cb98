package export

import (
	"encoding/json"
	"io"

	"github.com/alienxp03/santa/internal/core"
)

// JSONExporter exports games to JSON format.
type JSONExporter struct{}

// ExportData represents the full export structure.
type ExportData struct {
	*Sheet
	Complete bool     `json:"complete"`
	Pending  []string `json:"pending,omitempty"`
}

// Export writes the game as JSON.
func (e *JSONExporter) Export(sheet *Sheet, w io.Writer) error {
	s := *sheet
	if s.Assignments == nil {
		s.Assignments = core.AssignmentSet{}
	}

	data := ExportData{
		Sheet:    &s,
		Complete: len(s.Participants) > 0 && len(s.Assignments) == len(s.Participants),
		Pending:  core.Names(s.Pending()),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}

// ContentType returns the MIME type for JSON.
func (e *JSONExporter) ContentType() string {
	return "application/json"
}
