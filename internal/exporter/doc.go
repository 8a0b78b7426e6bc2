// Package exporter writes recalculated VSTOXX rows as reports.
//
// CSV files start with a UTF-8 BOM so Excel opens them correctly, and use the
// column order of ResultHeaders. Absent readings are empty cells. Workbooks
// contain a VSTOXX sheet with the same columns and a Summary sheet with the
// deviation statistics.
//
//	exp := exporter.NewResultExporter(paths, logger)
//	path, err := exp.ExportCSV(ctx, "vstoxx_results.csv", rows)
package exporter
