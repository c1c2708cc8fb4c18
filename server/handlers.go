package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cvhariharan/go-pub/apperr"
	"github.com/cvhariharan/go-pub/command"
	"github.com/cvhariharan/go-pub/federation"
	"github.com/cvhariharan/go-pub/models"
)

// maxInboxBody bounds inbound activity documents.
const maxInboxBody = 1 << 20

func (s *Server) root(c echo.Context) error {
	return c.String(http.StatusOK, "go-pub "+federation.Version)
}

func (s *Server) actor(c echo.Context) error {
	local, err := s.local(c)
	if err != nil {
		return err
	}
	if !wantsActivityJSON(c) {
		return c.String(http.StatusOK, local.Username+": "+local.DisplayName)
	}

	return writeActivityJSON(c, models.MediaType, models.Actor{
		Context:           []string{models.ActivityStreams, models.SecurityV1},
		ID:                local.ID(),
		Type:              models.TypePerson,
		Inbox:             local.Inbox(),
		Outbox:            local.Outbox(),
		Following:         local.Following(),
		Followers:         local.Followers(),
		PreferredUsername: local.Username,
		Name:              local.DisplayName,
		Summary:           "<p>" + federation.Version + "</p>",
		URL:               local.ID(),
		PubKey: models.PublicKey{
			ID:        local.ID(),
			Type:      "Key",
			Owner:     local.ID(),
			PubKeyPem: local.PublicKeyPem,
		},
		Icon: models.Image{
			Type:      "Image",
			MediaType: "image/png",
			URL:       local.PublicURL(local.Username + "u.png"),
		},
		Image: models.Image{
			Type:      "Image",
			MediaType: "image/png",
			URL:       local.PublicURL(local.Username + "s.png"),
		},
	})
}

func (s *Server) collection(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		local, err := s.local(c)
		if err != nil {
			return err
		}
		if !wantsActivityJSON(c) {
			return apperr.New(apperr.Validation, "accept %q", c.Request().Header.Get(echo.HeaderAccept))
		}
		return writeActivityJSON(c, models.MediaType, models.OrderedCollection{
			Context:    models.ActivityStreams,
			ID:         local.ID() + "/" + name,
			Type:       "OrderedCollection",
			TotalItems: 0,
		})
	}
}

func (s *Server) webfinger(c echo.Context) error {
	local := s.identity.At(hostOf(c))
	if c.QueryParam("resource") != local.Acct() {
		return apperr.New(apperr.NotFound, "webfinger resource %q", c.QueryParam("resource"))
	}
	base := "https://" + local.Host
	return writeActivityJSON(c, "application/jrd+json", models.WebFingerResp{
		Subject: local.Acct(),
		Aliases: []string{
			base + "/@" + local.Username,
			local.ID(),
			base + "/user/" + local.Username,
			base + "/users/" + local.Username,
		},
		Links: []models.Link{
			{
				Rel:  "self",
				Type: models.MediaType,
				Href: local.ID(),
			},
		},
	})
}

func (s *Server) postInbox(c echo.Context) error {
	local, err := s.local(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxInboxBody))
	if err != nil {
		return apperr.Wrap(apperr.Validation, err, "read body")
	}
	if err := s.inbox.Receive(c.Request().Context(), local, c.Request().Header.Get(echo.HeaderContentType), body); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// command checks the user and the path secret before anything else, so a
// caller without the secret cannot learn whether its parameters were valid.
func (s *Server) command(c echo.Context) error {
	local, err := s.local(c)
	if err != nil {
		return err
	}
	if err := s.commands.Authorize(c.Param("secret")); err != nil {
		return err
	}

	res, err := s.commands.Run(c.Request().Context(), local, command.Request{
		Type: command.Type(c.QueryParam("type")),
		ID:   c.QueryParam("id"),
		URL:  c.QueryParam("url"),
		Tag:  c.QueryParam("tag"),
	})
	if err != nil {
		return err
	}
	if res.ObjectType != "" {
		return c.String(http.StatusOK, res.ObjectType)
	}
	return c.NoContent(http.StatusOK)
}
