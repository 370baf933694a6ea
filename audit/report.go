package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"account", "privileged", "display_name", "enabled"}

// WriteCSV renders rows in the stable presentation order. The slice is
// sorted in place before writing.
func WriteCSV(w io.Writer, rows []ReportRow) error {
	SortRows(rows)

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.SAMAccountName,
			strconv.FormatBool(row.Privileged),
			row.DisplayName,
			strconv.FormatBool(row.Enabled),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write report row for %s: %w", row.SAMAccountName, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}
