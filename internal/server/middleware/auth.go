package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]map[string]string{
		"error": {"eng": msg},
	})
}

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return unauthorized(c, "Unauthorized")
		}

		cc := c.(*AppContext)
		app := cc.App

		// Master API Key bypass
		if app.MasterAPIKey != "" && app.MasterUserID != "" && token == app.MasterAPIKey {
			userType := app.MasterUserType
			if userType == "" {
				userType = common.IssuerUser
			}
			cc.User = &AppUser{ID: app.MasterUserID, Type: userType}
			return next(c)
		}

		if app.Keyfunc == nil {
			return unauthorized(c, "Unauthorized")
		}
		parsed, err := jwt.Parse(token, app.Keyfunc)
		if err != nil || !parsed.Valid {
			return unauthorized(c, "Unauthorized")
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}

		var userID string
		switch id := claims["id"].(type) {
		case string:
			userID = id
		case float64:
			userID = strconv.FormatInt(int64(id), 10)
		}
		if userID == "" {
			return unauthorized(c, "Invalid user ID")
		}

		userType := common.IssuerUser
		if typeClaim, ok := claims["type"].(string); ok && typeClaim != "" {
			userType = typeClaim
		}

		cc.User = &AppUser{ID: userID, Type: userType}
		return next(c)
	}
}
