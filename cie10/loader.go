package cie10

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	columnVariable = "Variable"
	columnLabel    = "Label"

	// noneLabel marks variables without a description in the export
	noneLabel = "<none>"
)

// Encodings reported in Result.Encoding
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Collision records two source keys that normalize to the same code. The
// description of Kept is the one present in the mapping.
type Collision struct {
	Code     string `json:"code"`
	Kept     string `json:"kept"`
	Replaced string `json:"replaced"`
}

// Result is a loaded mapping together with what happened while building it
type Result struct {
	Mapping Mapping

	Encoding           string
	RowsRead           int
	DroppedNone        []string    // Variables skipped because Label was "<none>"
	EmptyCodeRows      int         // rows skipped because Variable was empty
	DuplicateVariables []string    // Variables found on more than one kept row
	Overridden         []string    // file Variables replaced by a supplemental entry
	Collisions         []Collision // distinct keys merged by NormalizeCode
}

// LoadMapping reads the CSV file at path and returns the normalized mapping.
// A missing or unreadable file returns the *fs.PathError from the os package;
// a file without Variable/Label columns or with a malformed row returns a
// *FormatError. Rows with an empty Variable are skipped and counted in
// Result.EmptyCodeRows.
func LoadMapping(path string) (Mapping, error) {
	res, err := Load(path)
	if err != nil {
		return nil, err
	}
	return res.Mapping, nil
}

// ReadMapping is LoadMapping for an already open reader
func ReadMapping(r io.Reader) (Mapping, error) {
	res, err := Read(r)
	if err != nil {
		return nil, err
	}
	return res.Mapping, nil
}

// Load is LoadMapping with load statistics
func Load(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// Read is Load for an already open reader
func Read(r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	body, encoding, err := decode(raw)
	if err != nil {
		return nil, err
	}
	res := &Result{Encoding: encoding}

	rows, err := readRows(body, res)
	if err != nil {
		return nil, err
	}

	for _, entry := range supplementalEntries {
		if _, exists := rows.values[entry.Code]; exists {
			res.Overridden = append(res.Overridden, entry.Code)
		}
		rows.set(entry.Code, entry.Description)
	}

	res.Mapping = normalizeKeys(rows, res)
	return res, nil
}

// decode strips a UTF-8 byte order mark and falls back to ISO-8859-1 when the
// content is not valid UTF-8
func decode(raw []byte) ([]byte, string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return raw, EncodingUTF8, nil
	}
	body, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode iso-8859-1 content: %w", err)
	}
	return body, EncodingLatin1, nil
}

// rowReader accepts stray quotes inside fields like the export tools that
// write these files, but still rejects a quoted field left open at the end
// of the input
type rowReader struct {
	*csv.Reader
	data []byte
}

func newRowReader(data []byte) *rowReader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.LazyQuotes = true
	return &rowReader{Reader: reader, data: data}
}

func (rr *rowReader) Read() ([]string, error) {
	start := rr.InputOffset()
	record, err := rr.Reader.Read()
	if err != nil {
		return nil, err
	}

	// An open quote swallows the rest of the input, so only the last row can have one
	if rr.InputOffset() == int64(len(rr.data)) && openQuote(rr.data[start:]) {
		line, _ := rr.FieldPos(0)
		return nil, &FormatError{Line: line, Reason: "malformed row", Err: csv.ErrQuote}
	}
	return record, nil
}

// openQuote reports whether row has a quoted field with no closing quote.
// A quote closes the field only before a comma, a line end or the end of
// the input; "" is an escaped quote.
func openQuote(row []byte) bool {
	row = bytes.TrimLeft(row, "\r\n")

fields:
	for len(row) > 0 {
		if row[0] != '"' {
			i := bytes.IndexByte(row, ',')
			if i < 0 {
				return false
			}
			row = row[i+1:]
			continue
		}

		row = row[1:]
		for {
			i := bytes.IndexByte(row, '"')
			if i < 0 {
				return true
			}
			row = row[i+1:]

			switch {
			case len(row) > 0 && row[0] == '"':
				row = row[1:]
			case len(row) > 0 && row[0] == ',':
				row = row[1:]
				continue fields
			case len(bytes.TrimRight(row, "\r\n")) == 0:
				return false
			}
		}
	}
	return false
}

// readRows parses the CSV body into Variable -> Label in file order
func readRows(body []byte, res *Result) (*orderedMap, error) {
	reader := newRowReader(body)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FormatError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, csvFormatError(err)
	}

	varIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case columnVariable:
			if varIdx == -1 {
				varIdx = i
			}
		case columnLabel:
			if labelIdx == -1 {
				labelIdx = i
			}
		}
	}

	var missing []string
	if varIdx == -1 {
		missing = append(missing, columnVariable)
	}
	if labelIdx == -1 {
		missing = append(missing, columnLabel)
	}
	if len(missing) > 0 {
		return nil, &FormatError{Line: 1, Reason: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}

	width := len(header)
	rows := newOrderedMap(512)
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvFormatError(err)
		}
		res.RowsRead++

		if len(record) > width {
			line, _ := reader.FieldPos(0)
			return nil, &FormatError{
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, saw %d", width, len(record)),
			}
		}

		variable := field(record, varIdx)
		label := field(record, labelIdx)

		if label == noneLabel {
			res.DroppedNone = append(res.DroppedNone, variable)
			continue
		}
		if variable == "" {
			res.EmptyCodeRows++
			continue
		}

		if rows.set(variable, label) && !seen[variable] {
			seen[variable] = true
			res.DuplicateVariables = append(res.DuplicateVariables, variable)
		}
	}

	return rows, nil
}

// normalizeKeys applies NormalizeCode to every key in insertion order. The
// later of two colliding keys wins.
func normalizeKeys(rows *orderedMap, res *Result) Mapping {
	mapping := make(Mapping, rows.len())
	origin := make(map[string]string, rows.len())

	for _, key := range rows.keys {
		code := NormalizeCode(key)
		if prev, exists := origin[code]; exists {
			res.Collisions = append(res.Collisions, Collision{Code: code, Kept: key, Replaced: prev})
		}
		origin[code] = key
		mapping[code] = rows.values[key]
	}

	return mapping
}

// field returns record[idx], or "" when the row is shorter than the header
func field(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func csvFormatError(err error) error {
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		return err
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &FormatError{Line: parseErr.StartLine, Reason: "malformed row", Err: parseErr.Err}
	}
	return &FormatError{Reason: "malformed row", Err: err}
}
