package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/wardgate/pkg/audit"
)

// CSVExporter exports audit entries to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes entries to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, entries []*audit.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", len(entries), err)
		}
	}

	for i, entry := range entries {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(entryToRow(entry)); err != nil {
			return audit.NewExportError("csv", len(entries), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(entries), err)
	}
	return nil
}

func headerRow() []string {
	return []string{"id", "timestamp", "actor_id", "actor_name", "action", "resource", "detail"}
}

func entryToRow(entry *audit.Entry) []string {
	return []string{
		strconv.FormatInt(entry.ID, 10),
		entry.Timestamp.UTC().Format(time.RFC3339),
		strconv.FormatInt(entry.ActorID, 10),
		entry.ActorName,
		string(entry.Action),
		entry.Resource,
		entry.Detail,
	}
}
