package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nova328/teams-meeting-audio/internal/agent"
)

// New creates the status server the supervisor polls: liveness plus the
// current session flags.
func New(snapshot func() agent.State) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/state", func(c echo.Context) error {
		return c.JSON(http.StatusOK, snapshot())
	})

	return e
}
