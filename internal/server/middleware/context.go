package middleware

import (
	"github.com/OFFIS-RIT/papertext/backend/internal/queue"
	"github.com/OFFIS-RIT/papertext/backend/pkg/docs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// AppUser is the authenticated caller. Type is the issuer type recorded on
// created corpora and documents.
type AppUser struct {
	ID   string
	Type string
}

type App struct {
	Docs           docs.Service
	Queue          queue.Publisher
	Keyfunc        jwt.Keyfunc
	MasterAPIKey   string
	MasterUserID   string
	MasterUserType string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
