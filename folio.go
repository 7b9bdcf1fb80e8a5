// Package folio is a self-hosted personal-portfolio content engine. It owns
// an embedded SQLite store of polymorphic content blocks (projects, skills,
// certificates, social links, roles), a profile and site-settings layer, a
// contact inbox with optional transactional-email forwarding, and a
// rule-based FAQ chatbot with an optional generative path.
//
// The engine serves JSON: a public read API for the site frontend and a
// session-protected admin API for the CRUD console.
package folio

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/khanhnv/folio/chat"
)

// Snapshot is the full public read model, loaded in one pass and cached by
// the snapshot loader. Nil slices never escape: a loaded snapshot always
// carries empty slices for sections with no content.
type Snapshot struct {
	Profile      *Profile          `json:"profile"`
	Projects     []Project         `json:"projects"`
	Skills       []Skill           `json:"skills"`
	Certificates []Certificate     `json:"certificates"`
	Roles        []Role            `json:"roles"`
	SocialLinks  []SocialLink      `json:"social_links"`
	Settings     map[string]string `json:"settings"`
}

// App is the central folio application. It wires together the store, the
// projection layer, the chat service, the mailer, and the HTTP surface.
type App struct {
	Config    Config
	Echo      *echo.Echo
	Store     *Store
	Projector *Projector
	Portfolio *Portfolio
	ChatStore *chat.Store
	Chat      *chat.Service
	Mailer    *Mailer
	Log       *zap.Logger

	snapshot       *Loader[Snapshot]
	loginLimiter   *RateLimiter
	chatLimiter    *RateLimiter
	contactLimiter *RateLimiter
}

// New creates an App from a validated configuration.
func New(cfg Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		Config: cfg,
		Echo:   echo.New(),
		Log:    log,
	}
}

// Start initializes the store, services, middleware and routes, then runs
// the server until it is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Init wires every dependency without binding the listener. Split out from
// Start so tests can drive the Echo instance directly.
func (a *App) Init() error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store

	a.Projector = NewProjector(a.Log)
	a.Portfolio = NewPortfolio(a.Store, a.Projector)

	chatStore, err := chat.NewStore(store.DB())
	if err != nil {
		return fmt.Errorf("folio: init chat store: %w", err)
	}
	a.ChatStore = chatStore

	var llm *chat.LLMClient
	if a.Config.Chat.LLMAvailable() {
		llm, err = chat.NewLLMClient(a.Config.Chat.LLMEndpoint, a.Config.Chat.LLMModel, a.Config.Chat.LLMAPIKey, a.Log)
		if err != nil {
			return fmt.Errorf("folio: init llm client: %w", err)
		}
	}
	a.Chat = chat.NewService(chatStore, llm, a.Log)

	a.Mailer = NewMailer(a.Config.Email, a.Log)

	a.snapshot = NewLoader(a.Config.SnapshotTTL, a.loadSnapshot)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.chatLimiter = NewRateLimiter(20, time.Minute)
	a.contactLimiter = NewRateLimiter(3, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// loadSnapshot assembles the full public read model.
func (a *App) loadSnapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Projects:     []Project{},
		Skills:       []Skill{},
		Certificates: []Certificate{},
		Roles:        []Role{},
		SocialLinks:  []SocialLink{},
	}

	profile, err := a.Portfolio.Profile(ctx)
	if err == nil {
		snap.Profile = &profile
	} else if err != ErrNotFound {
		return Snapshot{}, err
	}
	if snap.Projects, err = a.Portfolio.Projects(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Skills, err = a.Portfolio.Skills(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Certificates, err = a.Portfolio.Certificates(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Roles, err = a.Portfolio.Roles(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.SocialLinks, err = a.Portfolio.SocialLinks(ctx); err != nil {
		return Snapshot{}, err
	}
	settings, err := a.Portfolio.SiteSettings(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Settings = settings.Resolved()
	return snap, nil
}

// invalidate drops the cached snapshot after an admin write so the next
// public read re-fetches (fetch-after-write, no incremental patching).
func (a *App) invalidate() {
	a.snapshot.Invalidate()
}

// chatContext converts the current snapshot into the bot's grounding. A
// cold or failing snapshot yields an empty context; the bot still answers
// from the knowledge base and defaults.
func (a *App) chatContext(ctx context.Context) chat.Context {
	snap, loaded, _ := a.snapshot.Get(ctx)
	if !loaded {
		return chat.Context{}
	}
	cc := chat.Context{}
	if snap.Profile != nil {
		cc.Name = snap.Profile.Name
		cc.DisplayName = snap.Profile.DisplayName
		cc.Title = snap.Profile.Title
		cc.Bio = snap.Profile.Bio
		cc.Email = snap.Profile.Email
		cc.Location = snap.Profile.Location
	}
	for _, s := range snap.Skills {
		cc.Skills = append(cc.Skills, chat.SkillInfo{Name: s.Name, Category: s.Category, Featured: s.IsFeatured})
	}
	for _, p := range snap.Projects {
		cc.Projects = append(cc.Projects, chat.ProjectInfo{Title: p.Title, Description: p.Description, Featured: p.IsFeatured})
	}
	for _, c := range snap.Certificates {
		cc.Certificates = append(cc.Certificates, chat.CertInfo{Title: c.Title, Issuer: c.Issuer})
	}
	return cc
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/healthz", a.handleHealth)

	// Public read API
	api := e.Group("/api")
	api.GET("/portfolio", a.handlePortfolio)
	api.GET("/profile", a.handleProfile)
	api.GET("/projects", a.handleProjects)
	api.GET("/skills", a.handleSkills)
	api.GET("/certificates", a.handleCertificates)
	api.GET("/roles", a.handleRoles)
	api.GET("/social-links", a.handleSocialLinks)
	api.GET("/settings", a.handleSettings)

	// Public write API
	api.POST("/chat", a.handleChat)
	api.POST("/contact", a.handleContact)

	// Admin API — session-cookie protected
	e.POST("/admin/login", a.handleAdminLogin)
	e.POST("/admin/logout", a.handleAdminLogout)

	admin := e.Group("/admin/api", a.requireAdmin)
	admin.GET("/stats", a.handleAdminStats)

	admin.GET("/blocks", a.handleAdminListBlocks)
	admin.POST("/blocks", a.handleAdminCreateBlock)
	admin.PUT("/blocks/:id", a.handleAdminUpdateBlock)
	admin.DELETE("/blocks/:id", a.handleAdminDeleteBlock)

	admin.GET("/profile", a.handleAdminGetProfile)
	admin.PUT("/profile", a.handleAdminSaveProfile)

	admin.GET("/settings", a.handleAdminListSettings)
	admin.PUT("/settings/:key", a.handleAdminSetSetting)
	admin.DELETE("/settings/:key", a.handleAdminDeleteSetting)

	admin.GET("/technologies", a.handleAdminListTechnologies)
	admin.PUT("/blocks/:id/technologies", a.handleAdminRelinkTechnologies)

	admin.GET("/knowledge", a.handleAdminListKnowledge)
	admin.POST("/knowledge", a.handleAdminCreateKnowledge)
	admin.PUT("/knowledge/:id", a.handleAdminUpdateKnowledge)
	admin.DELETE("/knowledge/:id", a.handleAdminDeleteKnowledge)

	admin.GET("/messages", a.handleAdminListMessages)
	admin.POST("/messages/:id/read", a.handleAdminMarkMessageRead)

	admin.GET("/history", a.handleAdminChatHistory)

	admin.POST("/images", a.handleImageUpload)
}
