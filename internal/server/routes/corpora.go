package routes

import (
	"net/http"
	"strconv"

	"github.com/OFFIS-RIT/papertext/backend/internal/queue"
	"github.com/OFFIS-RIT/papertext/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/papertext/backend/pkg/docs"

	"github.com/labstack/echo/v4"
)

// CreateCorpusHandler creates a corpus issued by the caller.
func CreateCorpusHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)
	if cc.User == nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorDetails{Eng: "Unauthorized"}})
	}

	data := new(docs.CreateCorpusParams)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	data.IssuerID = cc.User.ID
	data.IssuerType = cc.User.Type

	ctx := c.Request().Context()
	corpus, err := cc.App.Docs.CreateCorpus(ctx, *data)
	if err != nil {
		return writeError(c, err)
	}
	queue.NotifyCorpusCreated(ctx, cc.App.Queue, corpus, data.ParentCorpID, data.IssuerID)

	return c.JSON(http.StatusCreated, corpus)
}

// GetCorporaHandler lists corpora, optionally only the children of
// parent_corp_id.
func GetCorporaHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)

	params := docs.ReadCorporaParams{
		RequesterID:  cc.User.ID,
		ParentCorpID: c.QueryParam("parent_corp_id"),
		HasAccess:    splitList(c.QueryParams()["has_access"]),
	}
	if raw := c.QueryParam("private"); raw != "" {
		private, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "private must be a boolean")
		}
		params.Private = &private
	}

	corpora, err := cc.App.Docs.ReadCorpora(c.Request().Context(), params)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, corpora)
}

func GetCorpusHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)

	corpus, err := cc.App.Docs.ReadCorpus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, corpus)
}

func EditCorpusHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)

	_, err := cc.App.Docs.UpdateCorpus(c.Request().Context(), docs.UpdateCorpusParams{
		RequesterID: cc.User.ID,
		CorpID:      c.Param("id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func DeleteCorpusHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)

	if err := cc.App.Docs.DeleteCorpus(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
