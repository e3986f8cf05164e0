package domain

import (
	"encoding/json"
	"fmt"
)

// DefaultFindLimit is the page size used when a query sets no limit.
// CouchDB itself defaults to 25, which silently truncates analytics input.
const DefaultFindLimit = 100

// SortDirection orders query results.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField is one entry of a query sort specification.
type SortField struct {
	Field     string
	Direction SortDirection
}

// MarshalJSON writes the Mango form {"field": "asc"}.
func (s SortField) MarshalJSON() ([]byte, error) {
	dir := s.Direction
	if dir == "" {
		dir = SortAsc
	}
	return json.Marshal(map[string]SortDirection{s.Field: dir})
}

// UnmarshalJSON accepts both {"field": "dir"} and a bare "field".
func (s *SortField) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = SortField{Field: name, Direction: SortAsc}
		return nil
	}
	var m map[string]SortDirection
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("%w: sort entry must name exactly one field", ErrInvalidInput)
	}
	for field, dir := range m {
		*s = SortField{Field: field, Direction: dir}
	}
	return nil
}

// Selector is a Mango selector expression.
type Selector map[string]any

// Query is a query descriptor ready to submit to the find endpoint.
type Query struct {
	// Kind is the document kind the query was built for.
	Kind Kind `json:"-"`

	Selector Selector    `json:"selector"`
	Sort     []SortField `json:"sort,omitempty"`
	Limit    int         `json:"limit,omitempty"`
	Skip     int         `json:"skip,omitempty"`
	Fields   []string    `json:"fields,omitempty"`
	Bookmark string      `json:"bookmark,omitempty"`
}

// RawDoc is a schemaless JSON document as stored in the database.
type RawDoc map[string]any

// ID returns the "_id" field.
func (d RawDoc) ID() string {
	s, _ := d["_id"].(string)
	return s
}

// Rev returns the "_rev" field.
func (d RawDoc) Rev() string {
	s, _ := d["_rev"].(string)
	return s
}

// Kind returns the "type" discriminator.
func (d RawDoc) Kind() Kind {
	s, _ := d["type"].(string)
	return Kind(s)
}

// Clone returns a shallow copy.
func (d RawDoc) Clone() RawDoc {
	out := make(RawDoc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Decode converts the raw document into its typed variant.
func (d RawDoc) Decode() (Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding document: %v", ErrInvalidInput, err)
	}
	return DecodeDocument(data)
}

// ToRaw converts a typed document into its stored JSON shape.
func ToRaw(doc Document) (RawDoc, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding document: %v", ErrInvalidInput, err)
	}
	var raw RawDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding document: %v", ErrInvalidInput, err)
	}
	return raw, nil
}

// FindResult is one page of documents returned by the find endpoint.
type FindResult struct {
	Docs     []RawDoc `json:"docs"`
	Bookmark string   `json:"bookmark,omitempty"`
	Warning  string   `json:"warning,omitempty"`
}

// WriteResult is the outcome of writing a single document.
type WriteResult struct {
	ID  string `json:"id"`
	Rev string `json:"rev,omitempty"`
}

// BulkItemResult is the per-document outcome of a bulk write.
type BulkItemResult struct {
	ID     string `json:"id"`
	Rev    string `json:"rev,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// BulkResult summarises a bulk write.
type BulkResult struct {
	Results      []BulkItemResult `json:"results"`
	Total        int              `json:"total"`
	SuccessCount int              `json:"success_count"`
	ErrorCount   int              `json:"error_count"`
}

// DatabaseInfo holds database statistics.
type DatabaseInfo struct {
	Name        string `json:"db_name"`
	DocCount    int    `json:"doc_count"`
	DocDelCount int    `json:"doc_del_count"`
	UpdateSeq   any    `json:"update_seq,omitempty"`
	Sizes       struct {
		File     int64 `json:"file"`
		External int64 `json:"external"`
		Active   int64 `json:"active"`
	} `json:"sizes"`
}
