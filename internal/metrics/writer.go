package metrics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"powermon/internal/config"
	"powermon/internal/logging"
)

// Writer serializes records to the configured destination. In CSV mode
// the first emitted record freezes the column order for the rest of the
// run; JSONL lines are self-describing and need no schema. Output is
// flushed per line to support live tailing.
type Writer struct {
	logger   *logging.Logger
	format   string
	out      *bufio.Writer
	file     *os.File
	isStdout bool
	frozen   []string
	closed   bool
}

// NewWriter opens the record sink: stdout when path is empty, otherwise
// the file at path opened in truncate mode.
func NewWriter(path, format string, logger *logging.Logger) (*Writer, error) {
	w := &Writer{
		logger: logger,
		format: format,
	}

	if path == "" {
		w.out = bufio.NewWriter(os.Stdout)
		w.isStdout = true
		return w, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	w.file = file
	w.out = bufio.NewWriter(file)
	return w, nil
}

// Emit serializes one record and flushes it.
func (w *Writer) Emit(rec *Record) error {
	switch w.format {
	case config.FormatJSONL:
		return w.emitJSONL(rec)
	default:
		return w.emitCSV(rec)
	}
}

func (w *Writer) emitCSV(rec *Record) error {
	if w.frozen == nil {
		w.frozen = append([]string(nil), rec.Keys()...)
		header := strings.Join(w.frozen, ",")
		if w.isStdout {
			// Mark the header as a comment so piped output stays
			// machine-consumable.
			header = "#" + header
		}
		if _, err := fmt.Fprintln(w.out, header); err != nil {
			return err
		}
	}

	fields := make([]string, len(w.frozen))
	for i, key := range w.frozen {
		if v, ok := rec.Value(key); ok {
			fields[i] = formatValue(v)
		}
	}

	if _, err := fmt.Fprintln(w.out, strings.Join(fields, ",")); err != nil {
		return err
	}
	return w.out.Flush()
}

func (w *Writer) emitJSONL(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := fmt.Fprintln(w.out, string(data)); err != nil {
		return err
	}
	return w.out.Flush()
}

// formatValue renders a scalar in its plain string form; floats never use
// scientific notation.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Schema returns the frozen CSV column order, nil before the first
// emitted record.
func (w *Writer) Schema() []string {
	return w.frozen
}

// Close flushes pending output and closes the file destination if any.
// Safe to call on every exit path; repeated calls are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.out.Flush(); err != nil && w.logger != nil {
		w.logger.Warn("sink.flush.failed", "Failed to flush record sink", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
