package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cinematch/internal/matching"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrUnknownLedger reports a header that matches neither ledger kind.
var ErrUnknownLedger = errors.New("unrecognized ledger header")

// ReadFile loads a ledger from disk.
func ReadFile(path string) (matching.Kind, []Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()
	kind, rows, err := Read(file)
	if err != nil {
		return "", nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	return kind, rows, nil
}

// Read parses a ledger. The kind is inferred from the header, a leading
// UTF-8 BOM is dropped and the separator (";" or ",") is taken from the
// header line.
func Read(r io.Reader) (matching.Kind, []Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil, fmt.Errorf("%w: empty file", ErrUnknownLedger)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return "", nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.Trim(strings.TrimSpace(col), `"`))] = i
	}
	kind, err := detectKind(index)
	if err != nil {
		return "", nil, err
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return kind, rows, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		row, err := parseRow(kind, index, record, line)
		if err != nil {
			return kind, rows, err
		}
		rows = append(rows, row)
	}
	return kind, rows, nil
}

func detectSeparator(data []byte) rune {
	first := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		first = data[:idx]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

func detectKind(index map[string]int) (matching.Kind, error) {
	if _, ok := index[ColLocalID]; !ok {
		return "", fmt.Errorf("%w: missing %s", ErrUnknownLedger, ColLocalID)
	}
	if _, ok := index[ColStatus]; !ok {
		return "", fmt.Errorf("%w: missing %s", ErrUnknownLedger, ColStatus)
	}
	if _, ok := index[ColLocalName]; ok {
		return matching.KindPerson, nil
	}
	if _, ok := index[ColLocalTitle]; ok {
		return matching.KindMovie, nil
	}
	return "", fmt.Errorf("%w: neither %s nor %s present", ErrUnknownLedger, ColLocalTitle, ColLocalName)
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
