package metrics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"powermon/internal/config"
	"powermon/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError)
}

func bufferedWriter(format string, stdout bool) (*Writer, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Writer{
		logger:   testLogger(),
		format:   format,
		out:      bufio.NewWriter(&buf),
		isStdout: stdout,
	}, &buf
}

func TestWriter_CSVFreezesSchemaOnFirstRecord(t *testing.T) {
	w, buf := bufferedWriter(config.FormatCSV, false)

	first := NewRecord()
	first.Set("timestamp", 1.0)
	first.Set("datetime", "d1")
	first.Set("cpu_package-0_power_w", 12.345)
	if err := w.Emit(first); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	// Second record misses one key and introduces a new one; the new key
	// must not appear, the missing one renders empty.
	second := NewRecord()
	second.Set("timestamp", 2.0)
	second.Set("datetime", "d2")
	second.Set("gpu0_power_w", 150.5)
	if err := w.Emit(second); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d lines", len(lines))
	}

	header := lines[0]
	if header != "timestamp,datetime,cpu_package-0_power_w" {
		t.Errorf("Unexpected header: %s", header)
	}

	for i, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			t.Errorf("Row %d: expected 3 fields, got %d (%s)", i+1, len(fields), line)
		}
	}

	if lines[1] != "1,d1,12.345" {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
	if lines[2] != "2,d2," {
		t.Errorf("Expected missing key as empty field, got: %s", lines[2])
	}
}

func TestWriter_CSVHeaderCommentOnStdout(t *testing.T) {
	w, buf := bufferedWriter(config.FormatCSV, true)

	rec := NewRecord()
	rec.Set("timestamp", 1.0)
	rec.Set("datetime", "d1")
	if err := w.Emit(rec); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "#") {
		t.Errorf("Expected commented header on stdout, got: %s", lines[0])
	}
	if lines[0] != "#timestamp,datetime" {
		t.Errorf("Unexpected header: %s", lines[0])
	}
}

func TestWriter_CSVFloatFormatting(t *testing.T) {
	w, buf := bufferedWriter(config.FormatCSV, false)

	rec := NewRecord()
	rec.Set("timestamp", 1724489600.123)
	rec.Set("cpu_freq_mhz", 2400)
	rec.Set("proc_ended", true)
	if err := w.Emit(rec); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	row := lines[1]
	if strings.Contains(row, "e+") || strings.Contains(row, "E+") {
		t.Errorf("Floats must not render in scientific notation: %s", row)
	}
	if row != "1724489600.123,2400,true" {
		t.Errorf("Unexpected row: %s", row)
	}
}

func TestWriter_JSONLLinesAreSelfDescribing(t *testing.T) {
	w, buf := bufferedWriter(config.FormatJSONL, false)

	first := NewRecord()
	first.Set("timestamp", 1.0)
	first.Set("gpu0_power_w", 100.0)
	second := NewRecord()
	second.Set("timestamp", 2.0)
	second.Set("proc_ended", true)

	if err := w.Emit(first); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if err := w.Emit(second); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	var m1, m2 map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &m1); err != nil {
		t.Fatalf("Line 1 is not valid JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &m2); err != nil {
		t.Fatalf("Line 2 is not valid JSON: %v", err)
	}

	// No frozen-schema leakage: each line carries only its own keys.
	if _, ok := m2["gpu0_power_w"]; ok {
		t.Error("Second line must not carry keys from the first record")
	}
	if len(m1) != 2 || len(m2) != 2 {
		t.Errorf("Unexpected key counts: %d and %d", len(m1), len(m2))
	}
}

func TestWriter_FileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewWriter(path, config.FormatCSV, testLogger())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	rec := NewRecord()
	rec.Set("timestamp", 1.0)
	if err := w.Emit(rec); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header + 1 row, got %d lines", len(lines))
	}
	// File destination headers are not comment-prefixed.
	if strings.HasPrefix(lines[0], "#") {
		t.Errorf("File header must not be comment-prefixed: %s", lines[0])
	}
}

func TestWriter_SchemaAccessor(t *testing.T) {
	w, _ := bufferedWriter(config.FormatCSV, false)
	if w.Schema() != nil {
		t.Error("Expected nil schema before the first record")
	}

	rec := NewRecord()
	rec.Set("timestamp", 1.0)
	rec.Set("datetime", "d")
	if err := w.Emit(rec); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	schema := w.Schema()
	if len(schema) != 2 || schema[0] != "timestamp" || schema[1] != "datetime" {
		t.Errorf("Unexpected frozen schema: %v", schema)
	}
}
