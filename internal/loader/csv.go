package loader

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// streamCSV reads CSV rows into a channel so huge batches never have to be
// decoded twice. Both channels close when the reader is exhausted.
func streamCSV(ctx context.Context, r io.Reader) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "loader: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "loader: read csv row")
				return
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "loader: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
