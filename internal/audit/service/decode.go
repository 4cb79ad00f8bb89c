package service

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// table is a decoded upload: normalized header names and the data records with their line numbers.
type table struct {
	header  []string
	records []record
	// skipped holds lines the CSV reader could not parse.
	skipped []RowWarning
}

type record struct {
	line   int
	fields []string
}

// decodeUpload reads the whole upload as UTF-8. A leading UTF-8 byte-order mark is dropped; any
// invalid byte sequence, including a UTF-16 byte-order mark, fails the whole upload with
// ErrUnreadableFile. Validation runs on the raw bytes before the mark is stripped.
func decodeUpload(r io.Reader) ([]byte, error) {
	t := transform.Chain(encoding.UTF8Validator, unicode.UTF8BOM.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, t))
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, fmt.Errorf("%w: file is not valid UTF-8", ErrUnreadableFile)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return data, nil
}

// sniffDelimiter picks the field separator from the first non-blank line: comma unless that line
// has none and carries semicolons or tabs instead.
func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case strings.ContainsRune(line, ','):
			return ','
		case strings.ContainsRune(line, ';'):
			return ';'
		case strings.ContainsRune(line, '\t'):
			return '\t'
		}
		return ','
	}
	return ','
}

// parseTable splits data into a header row and data records. Header names are trimmed and
// lower-cased. Records the reader rejects are skipped and reported; blank lines are ignored.
func parseTable(data []byte) (*table, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	t := &table{}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
			}
			if t.header == nil {
				return nil, fmt.Errorf("%w: header: %v", ErrUnreadableFile, err)
			}
			t.skipped = append(t.skipped, RowWarning{Row: perr.StartLine, Reason: perr.Err.Error()})
			continue
		}
		if t.header == nil {
			t.header = make([]string, len(fields))
			for i, name := range fields {
				t.header[i] = strings.ToLower(strings.TrimSpace(name))
			}
			continue
		}
		line, _ := cr.FieldPos(0)
		t.records = append(t.records, record{line: line, fields: fields})
	}
	return t, nil
}
