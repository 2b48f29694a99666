package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

type searchRequest struct {
	Query     string       `json:"query"`
	Platform  *platform.ID `json:"platform,omitempty"`
	Threshold float32      `json:"threshold,omitempty"`
	Count     int          `json:"count,omitempty"`
}

type searchMatchResponse struct {
	Platform   platform.ID    `json:"platform"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float32        `json:"similarity"`
}

// SearchDocuments answers a similarity query over indexed documents.
// POST /api/v1/search
func (s *APIV1Service) SearchDocuments(c echo.Context) error {
	if s.Search == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "document search is not enabled")
	}

	request := &searchRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	matches, err := s.Search.Search(c.Request().Context(), request.Query,
		request.Platform, request.Threshold, request.Count)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response := make([]searchMatchResponse, 0, len(matches))
	for _, match := range matches {
		response = append(response, searchMatchResponse{
			Platform:   match.Document.Platform,
			Content:    match.Document.Content,
			Metadata:   match.Document.Metadata,
			Similarity: match.Similarity,
		})
	}
	return c.JSON(http.StatusOK, response)
}

type indexDocumentRequest struct {
	Platform platform.ID    `json:"platform,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type indexDocumentResponse struct {
	ID       int32       `json:"id"`
	Platform platform.ID `json:"platform"`
}

// IndexDocument embeds and stores a document for similarity search.
// POST /api/v1/documents
func (s *APIV1Service) IndexDocument(c echo.Context) error {
	if s.Search == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "document search is not enabled")
	}

	request := &indexDocumentRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	p := request.Platform
	if p == "" {
		p = requestPlatform(c)
	}
	doc, err := s.Search.IndexDocument(c.Request().Context(), p, request.Content, request.Metadata)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, indexDocumentResponse{ID: doc.ID, Platform: doc.Platform})
}
