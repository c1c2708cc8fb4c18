package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/cvhariharan/go-pub/apperr"
	"github.com/cvhariharan/go-pub/command"
	"github.com/cvhariharan/go-pub/inbox"
	"github.com/cvhariharan/go-pub/logging"
	"github.com/cvhariharan/go-pub/models"
)

const headerXForwardedHost = "X-Forwarded-Host"

type Server struct {
	identity  *models.Identity
	inbox     *inbox.Handler
	commands  *command.Runner
	log       zerolog.Logger
	publicDir string
}

type Options struct {
	Identity  *models.Identity
	Inbox     *inbox.Handler
	Commands  *command.Runner
	Logger    zerolog.Logger
	PublicDir string
}

func New(opts Options) *Server {
	return &Server{
		identity:  opts.Identity,
		inbox:     opts.Inbox,
		commands:  opts.Commands,
		log:       opts.Logger,
		publicDir: opts.PublicDir,
	}
}

// Echo returns a router with every route and middleware installed.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(logging.RequestLogger(s.log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	e.GET("/", s.root)
	if s.publicDir != "" {
		e.Static("/public", s.publicDir)
	}

	e.GET("/.well-known/webfinger", s.webfinger)
	e.GET("/u/:name", s.actor)
	e.GET("/u/:name/inbox", methodNotAllowed)
	e.POST("/u/:name/inbox", s.postInbox)
	e.GET("/u/:name/outbox", s.collection("outbox"))
	e.POST("/u/:name/outbox", methodNotAllowed)
	e.GET("/u/:name/following", s.collection("following"))
	e.GET("/u/:name/followers", s.collection("followers"))
	e.POST("/s/:secret/u/:name", s.command)

	for _, p := range []string{"/@", "/u", "/user", "/users"} {
		e.GET(p, redirectTo("/"))
	}
	for _, p := range []string{"/@:name", "/user/:name", "/users/:name"} {
		e.GET(p, redirectToActor)
	}
	return e
}

// hostOf returns the hostname the request was addressed to, without port.
// A reverse proxy's X-Forwarded-Host wins.
func hostOf(c echo.Context) string {
	host := c.Request().Host
	if fwd := c.Request().Header.Get(headerXForwardedHost); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// local resolves the :name path parameter to the local identity. Any other
// name is a 404.
func (s *Server) local(c echo.Context) (models.Local, error) {
	if c.Param("name") != s.identity.Username {
		return models.Local{}, apperr.New(apperr.NotFound, "user %q", c.Param("name"))
	}
	return s.identity.At(hostOf(c)), nil
}

func wantsActivityJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), models.MediaType)
}

func writeActivityJSON(c echo.Context, contentType string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, contentType, b)
}

func methodNotAllowed(c echo.Context) error {
	return echo.ErrMethodNotAllowed
}

func redirectTo(path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, path)
	}
}

func redirectToActor(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/u/"+c.Param("name"))
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := apperr.Status(err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
	} else {
		s.log.Debug().Err(err).Str("path", c.Request().URL.Path).Msg("request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": http.StatusText(code)})
	}
	if err != nil {
		s.log.Error().Err(err).Msg("writing error response")
	}
}
