package processor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/streamingfast/dstore"
)

var csvHeader = []string{"file", "line", "hash"}

// Writer streams the hashes of one input file as CSV into an object of the
// output store.
type Writer struct {
	writer    *io.PipeWriter
	done      chan error
	csvWriter *csv.Writer
	filename  string
}

func NewWriter(ctx context.Context, store dstore.Store, filename string) *Writer {
	reader, writer := io.Pipe()

	w := &Writer{
		filename:  filename,
		csvWriter: csv.NewWriter(writer),
		writer:    writer,
		done:      make(chan error, 1),
	}

	go func() {
		err := store.WriteObject(ctx, filename, reader)
		if err != nil {
			err = fmt.Errorf("failed writing object %q: %w", filename, err)
		}

		// Unblocks pending writes when the store stopped reading early
		reader.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *Writer) WriteHeader() error {
	return w.csvWriter.Write(csvHeader)
}

func (w *Writer) Write(file string, line uint64, hash int32) error {
	return w.csvWriter.Write([]string{
		file,
		strconv.FormatUint(line, 10),
		strconv.FormatInt(int64(hash), 10),
	})
}

// Abort stops the writer without completing the object.
func (w *Writer) Abort(cause error) {
	w.writer.CloseWithError(cause)
	<-w.done
}

func (w *Writer) Close() error {
	w.csvWriter.Flush()
	if err := w.csvWriter.Error(); err != nil {
		w.Abort(err)
		return fmt.Errorf("error flushing csv encoder: %w", err)
	}

	if err := w.writer.Close(); err != nil {
		return fmt.Errorf("closing csv writer: %w", err)
	}

	return <-w.done
}
