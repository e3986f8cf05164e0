package couchdb

import (
	"context"

	kivik "github.com/go-kivik/kivik/v4"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// Get retrieves a document by ID.
func (c *Client) Get(ctx context.Context, id string) (domain.RawDoc, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var doc domain.RawDoc
	if err := c.db.Get(ctx, id).ScanDoc(&doc); err != nil {
		return nil, c.wrapError(ctx, err, "get "+id)
	}
	return doc, nil
}

// Put creates or updates a document. Documents without an ID are created
// so the server assigns one.
func (c *Client) Put(ctx context.Context, doc domain.RawDoc) (domain.WriteResult, error) {
	if err := c.ready(); err != nil {
		return domain.WriteResult{}, err
	}
	id := doc.ID()
	if id == "" {
		newID, rev, err := c.db.CreateDoc(ctx, doc)
		if err != nil {
			return domain.WriteResult{}, c.wrapError(ctx, err, "create document")
		}
		return domain.WriteResult{ID: newID, Rev: rev}, nil
	}
	rev, err := c.db.Put(ctx, id, doc)
	if err != nil {
		return domain.WriteResult{}, c.wrapError(ctx, err, "put "+id)
	}
	return domain.WriteResult{ID: id, Rev: rev}, nil
}

// Delete removes a document at revision rev.
func (c *Client) Delete(ctx context.Context, id, rev string) (domain.WriteResult, error) {
	if err := c.ready(); err != nil {
		return domain.WriteResult{}, err
	}
	newRev, err := c.db.Delete(ctx, id, rev)
	if err != nil {
		return domain.WriteResult{}, c.wrapError(ctx, err, "delete "+id)
	}
	return domain.WriteResult{ID: id, Rev: newRev}, nil
}

// Find runs a Mango query.
func (c *Client) Find(ctx context.Context, q domain.Query) (*domain.FindResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if q.Selector == nil {
		q.Selector = domain.Selector{}
	}

	rs := c.db.Find(ctx, q)
	defer rs.Close()

	res := &domain.FindResult{Docs: []domain.RawDoc{}}
	for rs.Next() {
		var doc domain.RawDoc
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, c.wrapError(ctx, err, "find")
		}
		res.Docs = append(res.Docs, doc)
	}
	if err := rs.Err(); err != nil {
		return nil, c.wrapError(ctx, err, "find")
	}
	meta, err := rs.Metadata()
	if err != nil {
		return nil, c.wrapError(ctx, err, "find")
	}
	res.Bookmark, res.Warning = meta.Bookmark, meta.Warning
	if res.Warning != "" {
		c.log.Debug("find warning", "warning", res.Warning)
	}
	return res, nil
}

// BulkDocs writes many documents in one request.
func (c *Client) BulkDocs(ctx context.Context, docs []domain.RawDoc) ([]domain.BulkItemResult, error) {
	if len(docs) == 0 {
		return []domain.BulkItemResult{}, nil
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = doc
	}
	results, err := c.db.BulkDocs(ctx, batch)
	if err != nil {
		return nil, c.wrapError(ctx, err, "bulk docs")
	}

	out := make([]domain.BulkItemResult, len(results))
	for i, r := range results {
		out[i] = domain.BulkItemResult{ID: r.ID, Rev: r.Rev}
		if r.Error != nil {
			out[i].Error = bulkErrorCode(kivik.HTTPStatus(r.Error))
			out[i].Reason = r.Error.Error()
			continue
		}
		out[i].OK = r.Rev != ""
	}
	return out, nil
}

// Info returns database statistics.
func (c *Client) Info(ctx context.Context) (*domain.DatabaseInfo, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	stats, err := c.db.Stats(ctx)
	if err != nil {
		return nil, c.wrapError(ctx, err, "database info")
	}
	info := &domain.DatabaseInfo{
		Name:        stats.Name,
		DocCount:    int(stats.DocCount),
		DocDelCount: int(stats.DeletedCount),
		UpdateSeq:   stats.UpdateSeq,
	}
	info.Sizes.File = stats.DiskSize
	info.Sizes.External = stats.ExternalSize
	info.Sizes.Active = stats.ActiveSize
	return info, nil
}
