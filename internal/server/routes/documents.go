package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papertext/backend/internal/queue"
	"github.com/OFFIS-RIT/papertext/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/papertext/backend/pkg/docs"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateDocumentHandler ingests a document. With ?async=true the request is
// queued for the worker and answered with 202.
func CreateDocumentHandler(c echo.Context) error {
	type createDocumentQuery struct {
		Async bool `query:"async"`
	}

	type queuedResponse struct {
		Message string `json:"message"`
		DocID   string `json:"doc_id"`
	}

	cc := c.(*middleware.AppContext)
	if cc.User == nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorDetails{Eng: "Unauthorized"}})
	}

	query := new(createDocumentQuery)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, query); err != nil {
		return badRequest(c, "Invalid query parameters")
	}

	data := new(docs.CreateDocumentParams)
	if err := (&echo.DefaultBinder{}).BindBody(c, data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	data.CreatorID = cc.User.ID
	data.CreatorType = cc.User.Type

	ctx := c.Request().Context()

	if query.Async {
		if cc.App.Queue == nil {
			return badRequest(c, "Asynchronous ingestion is not available")
		}
		if data.DocID == "" {
			id, err := gonanoid.New()
			if err != nil {
				return writeError(c, err)
			}
			data.DocID = id
		}
		job := queue.IngestJob{CreatorID: data.CreatorID, CreatorType: data.CreatorType, Document: *data}
		if err := queue.EnqueueIngest(ctx, cc.App.Queue, job); err != nil {
			return writeError(c, err)
		}
		logger.Info("[Server][CreateDocument] Queued document", "doc_id", data.DocID, "creator_id", data.CreatorID)
		return c.JSON(http.StatusAccepted, queuedResponse{Message: "Document queued for ingestion", DocID: data.DocID})
	}

	doc, err := cc.App.Docs.CreateDocument(ctx, *data)
	if err != nil {
		return writeError(c, err)
	}
	queue.NotifyDocumentCreated(ctx, cc.App.Queue, doc, data.CreatorID)

	return c.JSON(http.StatusCreated, doc)
}

// GetDocumentsHandler lists documents.
func GetDocumentsHandler(c echo.Context) error {
	type getDocumentsQuery struct {
		Contains      string `query:"contains"`
		Author        string `query:"author"`
		CreatedBefore string `query:"created_before"`
		CreatedAfter  string `query:"created_after"`
	}

	cc := c.(*middleware.AppContext)
	query := new(getDocumentsQuery)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, query); err != nil {
		return badRequest(c, "Invalid query parameters")
	}

	params := docs.ReadDocumentsParams{
		RequesterID: cc.User.ID,
		Contains:    query.Contains,
		Author:      query.Author,
		Tags:        splitList(c.QueryParams()["tags"]),
	}
	var err error
	if params.CreatedBefore, err = parseTime(query.CreatedBefore); err != nil {
		return badRequest(c, "created_before must be an RFC3339 timestamp")
	}
	if params.CreatedAfter, err = parseTime(query.CreatedAfter); err != nil {
		return badRequest(c, "created_after must be an RFC3339 timestamp")
	}

	documents, err := cc.App.Docs.ReadDocuments(c.Request().Context(), params)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, documents)
}

func GetDocumentHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)

	doc, err := cc.App.Docs.ReadDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func EditDocumentHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)

	_, err := cc.App.Docs.UpdateDocument(c.Request().Context(), docs.UpdateDocumentParams{
		RequesterID: cc.User.ID,
		DocID:       c.Param("id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func DeleteDocumentHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)

	if err := cc.App.Docs.DeleteDocument(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// splitList accepts both repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
