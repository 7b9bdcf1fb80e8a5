package folio

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/khanhnv/folio/chat"
)

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return echo.NewHTTPError(http.StatusUnauthorized, "wrong password")
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"authenticated": true})
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"authenticated": false})
}

// handleAdminStats serves the dashboard counters with count-only queries.
func (a *App) handleAdminStats(c echo.Context) error {
	ctx := c.Request().Context()
	stats := map[string]int64{}
	for _, typ := range BlockTypes {
		n, err := a.Store.Count(ctx, "content_blocks", map[string]any{"type": string(typ)})
		if err != nil {
			return err
		}
		stats[string(typ)+"s"] = n
	}
	unread, err := a.Store.Count(ctx, "contact_messages", map[string]any{"is_read": false})
	if err != nil {
		return err
	}
	stats["unread_messages"] = unread
	knowledge, err := a.Store.Count(ctx, "chatbot_knowledge", nil)
	if err != nil {
		return err
	}
	stats["knowledge_entries"] = knowledge
	chats, err := a.Store.Count(ctx, "chat_history", nil)
	if err != nil {
		return err
	}
	stats["chat_exchanges"] = chats
	stats["projection_degradations"] = a.Projector.DegradedCount()
	return c.JSON(http.StatusOK, stats)
}

// --- Content blocks ---

// handleAdminListBlocks lists raw blocks through the generic query
// primitive, so the console can slice by type or featured flag without a
// dedicated endpoint per combination.
func (a *App) handleAdminListBlocks(c echo.Context) error {
	q := Query{OrderBy: Asc("display_order")}
	filter := map[string]any{}
	if typ := c.QueryParam("type"); typ != "" {
		filter["type"] = typ
	}
	if c.QueryParam("featured") == "true" {
		filter["is_featured"] = true
	}
	if len(filter) > 0 {
		q.Filter = filter
	}
	if limit := c.QueryParam("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		q.Limit = n
	}
	rows, err := a.Store.Select(c.Request().Context(), "content_blocks", q)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []Row{}
	}
	return c.JSON(http.StatusOK, rows)
}

type blockPayload struct {
	Type            string `json:"type"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Description     string `json:"description"`
	LongDescription string `json:"long_description"`
	URL             string `json:"url"`
	Metadata        string `json:"metadata"`
	IsFeatured      bool   `json:"is_featured"`
	DisplayOrder    *int   `json:"display_order"`
}

func (a *App) handleAdminCreateBlock(c echo.Context) error {
	var req blockPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Type == "" || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "type and title are required")
	}
	typ := BlockType(req.Type)
	if !ValidBlockType(typ) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown block type "+req.Type)
	}

	ctx := c.Request().Context()
	order := 0
	if req.DisplayOrder != nil {
		order = *req.DisplayOrder
	} else {
		next, err := a.Store.NextDisplayOrder(ctx, typ)
		if err != nil {
			return err
		}
		order = next
	}

	id, err := a.Store.CreateBlock(ctx, ContentBlock{
		Type:            typ,
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		URL:             req.URL,
		Metadata:        req.Metadata,
		IsFeatured:      req.IsFeatured,
		DisplayOrder:    order,
	})
	if err != nil {
		return err
	}
	a.invalidate()

	block, err := a.Store.GetBlock(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, block)
}

func (a *App) handleAdminUpdateBlock(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	block, err := a.Store.GetBlock(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "block not found")
	}
	if err != nil {
		return err
	}

	var req blockPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	// req.Type is ignored on purpose: blocks keep their type for life.
	block.Title = req.Title
	block.Subtitle = req.Subtitle
	block.Description = req.Description
	block.LongDescription = req.LongDescription
	block.URL = req.URL
	block.Metadata = req.Metadata
	block.IsFeatured = req.IsFeatured
	if req.DisplayOrder != nil {
		block.DisplayOrder = *req.DisplayOrder
	}

	if err := a.Store.UpdateBlock(ctx, block); err != nil {
		return err
	}
	a.invalidate()

	updated, err := a.Store.GetBlock(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (a *App) handleAdminDeleteBlock(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteBlock(c.Request().Context(), id); err != nil {
		return err
	}
	a.invalidate()
	return c.NoContent(http.StatusNoContent)
}

// --- Profile ---

func (a *App) handleAdminGetProfile(c echo.Context) error {
	p, err := a.Store.GetProfile(c.Request().Context())
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusOK, Profile{})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (a *App) handleAdminSaveProfile(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(p.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if err := a.Store.SaveProfile(c.Request().Context(), p); err != nil {
		return err
	}
	a.invalidate()
	saved, err := a.Store.GetProfile(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

// --- Site settings ---

func (a *App) handleAdminListSettings(c echo.Context) error {
	settings, err := a.Store.ListSettings(c.Request().Context())
	if err != nil {
		return err
	}
	if settings == nil {
		settings = []SiteSetting{}
	}
	return c.JSON(http.StatusOK, settings)
}

func (a *App) handleAdminSetSetting(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "setting key is required")
	}
	var req struct {
		Value       string `json:"setting_value"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := a.Store.SetSetting(c.Request().Context(), key, req.Value, req.Description); err != nil {
		return err
	}
	a.invalidate()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAdminDeleteSetting(c echo.Context) error {
	if err := a.Store.DeleteSetting(c.Request().Context(), c.Param("key")); err != nil {
		return err
	}
	a.invalidate()
	return c.NoContent(http.StatusNoContent)
}

// --- Technologies ---

func (a *App) handleAdminListTechnologies(c echo.Context) error {
	techs, err := a.Store.ListTechnologies(c.Request().Context())
	if err != nil {
		return err
	}
	if techs == nil {
		techs = []Technology{}
	}
	return c.JSON(http.StatusOK, techs)
}

// handleAdminRelinkTechnologies replaces a project's technology set from a
// comma-separated input string.
func (a *App) handleAdminRelinkTechnologies(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	block, err := a.Store.GetBlock(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "block not found")
	}
	if err != nil {
		return err
	}
	if block.Type != BlockProject {
		return echo.NewHTTPError(http.StatusBadRequest, "technologies can only be linked to projects")
	}

	var req struct {
		Technologies string `json:"technologies"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	techs, err := a.Store.RelinkProjectTechnologies(ctx, id, SplitTechNames(req.Technologies))
	if err != nil {
		return err
	}
	a.invalidate()
	return c.JSON(http.StatusOK, techs)
}

// --- Knowledge base ---

func (a *App) handleAdminListKnowledge(c echo.Context) error {
	entries, err := a.ChatStore.ListKnowledge(c.Request().Context())
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []chat.KnowledgeEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (a *App) handleAdminCreateKnowledge(c echo.Context) error {
	var e chat.KnowledgeEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question and answer are required")
	}
	id, err := a.ChatStore.CreateKnowledge(c.Request().Context(), e)
	if err != nil {
		return err
	}
	e.ID = id
	return c.JSON(http.StatusCreated, e)
}

func (a *App) handleAdminUpdateKnowledge(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var e chat.KnowledgeEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question and answer are required")
	}
	e.ID = id
	if err := a.ChatStore.UpdateKnowledge(c.Request().Context(), e); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "knowledge entry not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (a *App) handleAdminDeleteKnowledge(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := a.ChatStore.DeleteKnowledge(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Contact inbox ---

func (a *App) handleAdminListMessages(c echo.Context) error {
	msgs, err := a.Store.ListContactMessages(c.Request().Context())
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []ContactMessage{}
	}
	return c.JSON(http.StatusOK, msgs)
}

func (a *App) handleAdminMarkMessageRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := a.Store.MarkMessageRead(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Chat history ---

func (a *App) handleAdminChatHistory(c echo.Context) error {
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	entries, err := a.ChatStore.ListHistory(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []chat.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
