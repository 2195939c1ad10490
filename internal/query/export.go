package query

import (
	"encoding/csv"
	"io"

	"github.com/cockroachdb/errors"
)

// WriteCSV writes a header of formatted column names followed by one
// record per row. Missing values are empty fields.
func WriteCSV(w io.Writer, rows []Row, columns []string) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = FormatHeader(c)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	record := make([]string, len(columns))
	for _, r := range rows {
		for i, c := range columns {
			record[i] = r.Get(c).Text()
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
