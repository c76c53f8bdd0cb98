// Package export handles exporting games to various formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alienxp03/santa/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Sheet is everything an exporter renders for one game.
type Sheet struct {
	Game         *core.Game         `json:"game"`
	Participants []core.Participant `json:"participants"`
	Assignments  core.AssignmentSet `json:"assignments"`
}

// Pending returns the participants that do not give yet, in roster order.
func (s *Sheet) Pending() []core.Participant {
	var pending []core.Participant
	for _, p := range s.Participants {
		if _, ok := s.Assignments.ReceiverOf(p.Name); !ok {
			pending = append(pending, p)
		}
	}
	return pending
}

// Exporter defines the interface for exporting games.
type Exporter interface {
	Export(sheet *Sheet, w io.Writer) error
	FileExtension() string
	ContentType() string
}

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", name)
	}
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(game *core.Game, ext string) string {
	// Sanitize name for filename
	name := game.Name
	if len(name) > 50 {
		name = name[:50]
	}

	// Replace unsafe characters
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	name = replacer.Replace(name)

	timestamp := game.CreatedAt.Format("20060102")
	return fmt.Sprintf("santa_%s_%s.%s", timestamp, name, ext)
}

// Helper to format duration
func formatDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
	return fmt.Sprintf("%d days", int(d.Hours()/24))
}

func wishesOf(p core.Participant) string {
	if strings.TrimSpace(p.Wishes) == "" {
		return "No gift ideas shared."
	}
	return p.Wishes
}
