package couchdb

import (
	"context"
	"fmt"
	"strings"

	kivik "github.com/go-kivik/kivik/v4"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// GetDesign returns a design document.
func (c *Client) GetDesign(ctx context.Context, id string) (*domain.DesignDoc, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var ddoc domain.DesignDoc
	if err := c.db.Get(ctx, id).ScanDoc(&ddoc); err != nil {
		return nil, c.wrapError(ctx, err, "get "+id)
	}
	return &ddoc, nil
}

// PutDesign writes a design document. ddoc.Rev must match the stored revision.
func (c *Client) PutDesign(ctx context.Context, ddoc *domain.DesignDoc) (domain.WriteResult, error) {
	if !strings.HasPrefix(ddoc.ID, "_design/") {
		return domain.WriteResult{}, fmt.Errorf("%w: design id %q must start with _design/", domain.ErrInvalidInput, ddoc.ID)
	}
	if err := c.ready(); err != nil {
		return domain.WriteResult{}, err
	}
	rev, err := c.db.Put(ctx, ddoc.ID, ddoc)
	if err != nil {
		return domain.WriteResult{}, c.wrapError(ctx, err, "put "+ddoc.ID)
	}
	return domain.WriteResult{ID: ddoc.ID, Rev: rev}, nil
}

// IndexState starts a background build of design/view with a lazy,
// zero-row read and compares the index's update sequence with the
// database's.
func (c *Client) IndexState(ctx context.Context, design, view string) (*domain.IndexState, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	rs := c.db.Query(ctx, design, view, kivik.Params(map[string]interface{}{
		"update":     "lazy",
		"update_seq": true,
		"reduce":     false,
		"limit":      0,
	}))
	defer rs.Close()
	for rs.Next() {
		// limit 0 yields no rows; metadata is available once drained.
	}
	if err := rs.Err(); err != nil {
		return nil, c.wrapError(ctx, err, "index state "+design+"/"+view)
	}
	meta, err := rs.Metadata()
	if err != nil {
		return nil, c.wrapError(ctx, err, "index state "+design+"/"+view)
	}

	stats, err := c.db.Stats(ctx)
	if err != nil {
		return nil, c.wrapError(ctx, err, "database info")
	}
	return &domain.IndexState{
		Design:   design,
		View:     view,
		IndexSeq: domain.SeqNumber(meta.UpdateSeq),
		DBSeq:    domain.SeqNumber(stats.UpdateSeq),
	}, nil
}

// QueryView reads a view.
func (c *Client) QueryView(ctx context.Context, design, view string, q domain.ViewQuery) (*domain.ViewResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	rs := c.db.Query(ctx, design, view, kivik.Params(viewParams(q)))
	defer rs.Close()

	res := &domain.ViewResult{Rows: []domain.ViewRow{}}
	for rs.Next() {
		var row domain.ViewRow
		if err := rs.ScanKey(&row.Key); err != nil {
			return nil, c.wrapError(ctx, err, "query "+design+"/"+view)
		}
		if err := rs.ScanValue(&row.Value); err != nil {
			return nil, c.wrapError(ctx, err, "query "+design+"/"+view)
		}
		row.ID, _ = rs.ID()
		res.Rows = append(res.Rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, c.wrapError(ctx, err, "query "+design+"/"+view)
	}
	if meta, err := rs.Metadata(); err == nil {
		res.TotalRows, res.Offset = int(meta.TotalRows), int(meta.Offset)
	}
	return res, nil
}

// viewParams converts q to kivik parameters. The couchdb driver JSON
// encodes the key bounds.
func viewParams(q domain.ViewQuery) map[string]interface{} {
	params := map[string]interface{}{}
	if q.Group {
		params["group"] = true
	}
	if q.GroupLevel > 0 {
		params["group_level"] = q.GroupLevel
	}
	if q.Reduce != nil {
		params["reduce"] = *q.Reduce
	}
	if q.Limit > 0 {
		params["limit"] = q.Limit
	}
	if q.Descending {
		params["descending"] = true
	}
	if q.StartKey != nil {
		params["startkey"] = q.StartKey
	}
	if q.EndKey != nil {
		params["endkey"] = q.EndKey
	}
	return params
}
