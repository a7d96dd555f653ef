// Package report writes the outputs of a pipeline run: the enriched data
// file, the plain-text analytics report and the optional xlsx workbook.
//
// The text outputs contain no timestamps or run identifiers, so the same
// input and catalog always produce byte-identical files.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// WriteEnriched writes a header line of the output column names, then one
// delimited line per row. An empty row set yields only the header. Every
// row has exactly len(types.OutputColumns) fields: a delimiter, CR or LF
// inside a value is written as a space.
func WriteEnriched(w io.Writer, rows []types.EnrichedRecord, delim rune) error {
	bw := bufio.NewWriter(w)
	sep := string(delim)
	clean := strings.NewReplacer(sep, " ", "\r", " ", "\n", " ")

	if _, err := fmt.Fprintln(bw, strings.Join(types.OutputColumns, sep)); err != nil {
		return fmt.Errorf("failed to write enriched header: %w", err)
	}
	for _, r := range rows {
		fields := r.Row()
		for i, f := range fields {
			fields[i] = clean.Replace(f)
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, sep)); err != nil {
			return fmt.Errorf("failed to write enriched row %s: %w", r.TransactionID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush enriched data: %w", err)
	}
	return nil
}

// WriteEnrichedFile writes the enriched data to path atomically.
func WriteEnrichedFile(path string, rows []types.EnrichedRecord, delim rune) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return WriteEnriched(w, rows, delim)
	})
}
