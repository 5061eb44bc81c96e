package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for vaultscout resources.
const uriScheme = "vaultscout://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing indexed notes.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "notes",
		Name:        "notes",
		Description: "List of all indexed vault notes",
		MIMEType:    "application/json",
	}, s.handleNotesResource)

	// Template for note content by vault-relative path.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "notes/{+path}",
		Name:        "note-content",
		Description: "Content of a specific note by vault-relative path",
		MIMEType:    "text/markdown",
	}, s.handleNoteContentResource)
}

// handleNotesResource returns a list of all indexed notes.
func (s *Server) handleNotesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Notes == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	docs, err := s.ports.Notes.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	// Build simplified note list.
	type noteInfo struct {
		Path  string   `json:"path"`
		Title string   `json:"title"`
		Tags  []string `json:"tags,omitempty"`
	}

	infos := make([]noteInfo, len(docs))
	for i := range docs {
		infos[i] = noteInfo{
			Path:  docs[i].Path,
			Title: docs[i].Title,
			Tags:  docs[i].Tags,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling notes: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleNoteContentResource returns the content of a specific note.
func (s *Server) handleNoteContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Notes == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract path from URI: vaultscout://notes/{path}
	path := extractNotePath(req.Params.URI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Notes.GetDocumentByPath(ctx, path)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     doc.Content,
		}},
	}, nil
}

// extractNotePath extracts the vault-relative path from a URI like
// vaultscout://notes/{path}.
func extractNotePath(uri string) string {
	const prefix = uriScheme + "notes/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
