package exchange

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// CSVCodec reads and writes one document per row.
type CSVCodec struct{}

// Encode writes a header of the sorted union of all top-level keys, then
// one row per document. Missing fields are empty cells.
func (CSVCodec) Encode(w io.Writer, docs []domain.RawDoc) error {
	keys := map[string]struct{}{}
	for _, doc := range docs {
		for k := range doc {
			keys[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, doc := range docs {
		for i, k := range header {
			cell, err := formatCell(doc[k])
			if err != nil {
				return fmt.Errorf("document %s field %s: %w", doc.ID(), k, err)
			}
			row[i] = cell
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads rows back into documents. Empty cells are dropped. Cells
// of fields the row's kind declares take the declared type, so strings
// such as phone numbers keep their leading zeros. Undeclared fields are
// typed by their shape.
func (CSVCodec) Decode(r io.Reader) ([]domain.RawDoc, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []domain.RawDoc{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode csv header: %w", err)
	}
	typeCol := -1
	for i, name := range header {
		if name == "type" {
			typeCol = i
		}
	}

	docs := []domain.RawDoc{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode csv line %d: %w", line, err)
		}
		var kind domain.Kind
		if typeCol >= 0 && typeCol < len(record) {
			kind = domain.Kind(record[typeCol])
		}
		doc := domain.RawDoc{}
		for i, cell := range record {
			if i >= len(header) || cell == "" {
				continue
			}
			doc[header[i]] = parseCell(kind, header[i], cell)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func formatCell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func parseCell(kind domain.Kind, key, cell string) any {
	switch kind.FieldType(key) {
	case domain.FieldString:
		return cell
	case domain.FieldNumber:
		if f, ok := parseNumber(cell); ok {
			return f
		}
		return cell
	case domain.FieldBool:
		if b, err := strconv.ParseBool(cell); err == nil {
			return b
		}
		return cell
	case domain.FieldJSON:
		if v, ok := parseJSON(cell); ok {
			return v
		}
		return cell
	}

	if key == "_id" || key == "_rev" || strings.HasSuffix(key, "_id") {
		return cell
	}
	switch cell {
	case "true":
		return true
	case "false":
		return false
	}
	if v, ok := parseJSON(cell); ok {
		return v
	}
	// A leading zero marks a code, not a number.
	if len(cell) > 1 && cell[0] == '0' && cell[1] != '.' {
		return cell
	}
	if strings.ContainsAny(cell[:1], "-.0123456789") {
		if f, ok := parseNumber(cell); ok {
			return f
		}
	}
	return cell
}

func parseNumber(cell string) (float64, bool) {
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseJSON(cell string) (any, bool) {
	if !strings.HasPrefix(cell, "{") && !strings.HasPrefix(cell, "[") {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(cell), &v); err != nil {
		return nil, false
	}
	return v, true
}
