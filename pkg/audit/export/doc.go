// Package export writes audit entries to JSON or CSV for offline review.
//
//	exporter := export.NewCSVExporter(true)
//	if err := exporter.Export(ctx, entries, os.Stdout); err != nil {
//	    return err
//	}
package export
