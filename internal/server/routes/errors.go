package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorDetails struct {
	Eng  string `json:"eng"`
	Rus  string `json:"rus,omitempty"`
	Type string `json:"type,omitempty"`
}

type errorResponse struct {
	Error errorDetails `json:"error"`
}

// writeError renders err with the status of its kind. Errors that are not
// AppErrors are logged and hidden behind a generic message.
func writeError(c echo.Context, err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return c.JSON(common.StatusOf(err), errorResponse{Error: errorDetails{
			Eng:  appErr.Message,
			Rus:  appErr.MessageRus,
			Type: string(appErr.Type),
		}})
	}

	logger.Error("[Server] Request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: errorDetails{
		Eng: "Internal server error",
		Rus: "Внутренняя ошибка сервера",
	}})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: errorDetails{Eng: msg}})
}
