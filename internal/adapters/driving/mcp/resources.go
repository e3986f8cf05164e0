package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for couchlab resources.
	uriScheme = "couchlab://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource describing the document kinds.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "kinds",
		Name:        "kinds",
		Description: "Document kinds and their declared fields",
		MIMEType:    "application/json",
	}, s.handleKindsResource)

	// Static resource with database statistics.
	if s.ports.CRUD != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "database",
			Name:        "database",
			Description: "Database name, document count and sizes",
			MIMEType:    "application/json",
		}, s.handleDatabaseResource)
	}

	// Template for raw documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "A stored document as JSON",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleKindsResource lists every kind with its fields.
func (s *Server) handleKindsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type kindInfo struct {
		Kind     string   `json:"kind"`
		Label    string   `json:"label"`
		IDPrefix string   `json:"id_prefix"`
		Fields   []string `json:"fields"`
	}

	kinds := domain.AllKinds()
	infos := make([]kindInfo, len(kinds))
	for i, k := range kinds {
		infos[i] = kindInfo{
			Kind:     k.String(),
			Label:    k.Label(),
			IDPrefix: k.IDPrefix(),
			Fields:   k.Fields(),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleDatabaseResource returns database statistics.
func (s *Server) handleDatabaseResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	res := s.ports.CRUD.Info(ctx)
	if !res.Success {
		return nil, fmt.Errorf("database info: %w", res.Err())
	}
	return jsonResource(req.Params.URI, res.Data)
}

// handleDocumentResource returns one document by ID.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.CRUD == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract documentId from URI: couchlab://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	res := s.ports.CRUD.GetRaw(ctx, docID)
	if res.ErrorKind == domain.ErrorKindNotFound {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if !res.Success {
		return nil, fmt.Errorf("getting document: %w", res.Err())
	}
	return jsonResource(req.Params.URI, res.Data)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like couchlab://documents/{documentId}.
// Design document IDs keep their slash.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
