package folio

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// readResponse is the envelope for every public read. Error and Stale are
// set together when a refresh failed and the payload is the last good
// snapshot — the client decides whether to show stale content, the error,
// or both.
type readResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
	Stale bool   `json:"stale,omitempty"`
}

func (a *App) handleHealth(c echo.Context) error {
	if err := a.Store.DB().PingContext(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// respondSection serves one slice of the snapshot through the stale-or-fail
// contract: no data yet and a failing store is a 503; stale data with an
// error is still a 200.
func (a *App) respondSection(c echo.Context, pick func(Snapshot) any) error {
	snap, loaded, err := a.snapshot.Get(c.Request().Context())
	if !loaded {
		if err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(http.StatusOK, readResponse{Data: nil})
	}
	resp := readResponse{Data: pick(snap)}
	if err != nil {
		resp.Error = err.Error()
		resp.Stale = true
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *App) handlePortfolio(c echo.Context) error {
	return a.respondSection(c, func(s Snapshot) any { return s })
}

func (a *App) handleProfile(c echo.Context) error {
	return a.respondSection(c, func(s Snapshot) any { return s.Profile })
}

func (a *App) handleProjects(c echo.Context) error {
	featured := c.QueryParam("featured") == "true"
	return a.respondSection(c, func(s Snapshot) any {
		if !featured {
			return s.Projects
		}
		out := []Project{}
		for _, p := range s.Projects {
			if p.IsFeatured {
				out = append(out, p)
			}
		}
		return out
	})
}

func (a *App) handleSkills(c echo.Context) error {
	if c.QueryParam("grouped") == "true" {
		return a.respondSection(c, func(s Snapshot) any { return GroupSkills(s.Skills) })
	}
	return a.respondSection(c, func(s Snapshot) any { return s.Skills })
}

func (a *App) handleCertificates(c echo.Context) error {
	return a.respondSection(c, func(s Snapshot) any { return s.Certificates })
}

func (a *App) handleRoles(c echo.Context) error {
	return a.respondSection(c, func(s Snapshot) any { return s.Roles })
}

func (a *App) handleSocialLinks(c echo.Context) error {
	return a.respondSection(c, func(s Snapshot) any { return s.SocialLinks })
}

func (a *App) handleSettings(c echo.Context) error {
	return a.respondSection(c, func(s Snapshot) any { return s.Settings })
}

// --- Chat ---

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (a *App) handleChat(c echo.Context) error {
	if !a.chatLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "slow down a little")
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := c.Request().Context()
	reply := a.Chat.Respond(ctx, req.SessionID, req.Message, a.chatContext(ctx))
	return c.JSON(http.StatusOK, chatResponse{SessionID: req.SessionID, Reply: reply})
}

// --- Contact ---

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type contactResponse struct {
	ID        int64 `json:"id"`
	EmailSent bool  `json:"email_sent"`
}

// handleContact stores the submission first; the outbound notification is a
// side-effect whose failure (or absent configuration) never loses the
// message.
func (a *App) handleContact(c echo.Context) error {
	if !a.contactLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many messages, try again later")
	}
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and message are required")
	}

	ctx := c.Request().Context()
	id, err := a.Store.CreateContactMessage(ctx, req.Name, req.Email, req.Message)
	if err != nil {
		return err
	}

	sent := false
	if a.Mailer != nil {
		if err := a.Mailer.Send(ctx, req.Name, req.Email, req.Message); err != nil {
			a.Log.Warn("contact notification failed", zap.Error(err))
		} else {
			sent = true
		}
	}
	return c.JSON(http.StatusCreated, contactResponse{ID: id, EmailSent: sent})
}
