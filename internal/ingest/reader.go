package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format turns one uploaded file into raw records, header first.
type Format interface {
	Name() string
	CanRead(filename string) bool
	Read(r io.Reader, opt Options) ([][]string, error)
}

var registry []Format

// Register adds a format to the registry. Later registrations win on overlap.
func Register(f Format) {
	registry = append([]Format{f}, registry...)
}

// Formats lists registered format names.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for _, f := range registry {
		out = append(out, f.Name())
	}
	return out
}

func init() {
	Register(xlsxFormat{})
	Register(delimitedFormat{})
}

// ReadRecords picks a format by filename, falling back to delimited text.
// Blank records are dropped and a UTF-8 BOM on the first field is removed.
func ReadRecords(filename string, r io.Reader, opt Options) ([][]string, error) {
	var format Format = delimitedFormat{}
	for _, f := range registry {
		if f.CanRead(filename) {
			format = f
			break
		}
	}
	recs, err := format.Read(r, opt.normalized())
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, rec := range recs {
		if blankRecord(rec) {
			continue
		}
		out = append(out, rec)
	}
	if len(out) > 0 && len(out[0]) > 0 {
		out[0][0] = strings.TrimPrefix(out[0][0], "\ufeff")
	}
	return out, nil
}

// ReadFile opens path and reads it with ReadRecords.
func ReadFile(path string, opt Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return ReadRecords(filepath.Base(path), f, opt)
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return len(rec) <= 1
}

type delimitedFormat struct{}

func (delimitedFormat) Name() string { return "csv" }

func (delimitedFormat) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (delimitedFormat) Read(r io.Reader, _ Options) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = sniffDelimiter(data)

	var out [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// sniffDelimiter inspects the header line. Comma is the default; tab and
// semicolon are used only when the header has no commas at all.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.IndexByte(line, ',') >= 0 {
		return ','
	}
	switch {
	case bytes.IndexByte(line, '\t') >= 0:
		return '\t'
	case bytes.IndexByte(line, ';') >= 0:
		return ';'
	}
	return ','
}
