// Package chat implements the portfolio FAQ chatbot: an admin-managed
// knowledge base consulted by keyword matching, a set of canned topic
// responses built from the live portfolio context, and an optional
// generative path through an OpenAI-compatible endpoint that falls back to
// the rules on any failure.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Context is the portfolio snapshot the bot answers from. The site
// assembles it; the chat package never reads portfolio tables itself.
type Context struct {
	Name        string
	DisplayName string
	Title       string
	Bio         string
	Email       string
	Location    string

	Skills       []SkillInfo
	Projects     []ProjectInfo
	Certificates []CertInfo
}

// SkillInfo is the slice of a skill the bot talks about.
type SkillInfo struct {
	Name     string
	Category string
	Featured bool
}

// ProjectInfo is the slice of a project the bot talks about.
type ProjectInfo struct {
	Title       string
	Description string
	Featured    bool
}

// CertInfo is the slice of a certificate the bot talks about.
type CertInfo struct {
	Title  string
	Issuer string
}

// who returns the name the bot introduces itself with.
func (c Context) who() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Name != "" {
		return c.Name
	}
	return "the site owner"
}

// Service generates chat responses and records history.
type Service struct {
	store *Store
	llm   *LLMClient // nil when the generative path is not configured
	log   *zap.Logger
}

// NewService creates a chat service. llm may be nil.
func NewService(store *Store, llm *LLMClient, log *zap.Logger) *Service {
	return &Service{store: store, llm: llm, log: log.Named("chat")}
}

// Respond produces the bot's reply to message. The generative path is tried
// first when configured; any failure there falls back transparently to the
// rule-based responder, so the caller never sees a generation error. The
// exchange is persisted best-effort — a history write failure is logged,
// not returned.
func (s *Service) Respond(ctx context.Context, sessionID, message string, pctx Context) string {
	start := time.Now()

	knowledge, err := s.store.ActiveKnowledge(ctx)
	if err != nil {
		s.log.Warn("knowledge base unavailable", zap.Error(err))
		knowledge = nil
	}

	var reply string
	if s.llm != nil {
		reply, err = s.llm.Generate(ctx, message, pctx, MatchKnowledge(message, knowledge))
		if err != nil {
			s.log.Warn("generative response failed, falling back to rules", zap.Error(err))
			reply = ""
		}
	}
	if reply == "" {
		reply = s.ruleBased(message, pctx, knowledge)
	}

	if err := s.store.SaveHistory(ctx, HistoryEntry{
		SessionID:      sessionID,
		UserMessage:    message,
		BotResponse:    reply,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}); err != nil {
		s.log.Warn("failed to save chat history", zap.Error(err))
	}
	return reply
}

// MatchKnowledge returns the knowledge entries relevant to query, in stored
// order. An entry matches when its question or answer contains the query,
// or when any keyword is contained in the query or contains it —
// everything case-insensitive.
func MatchKnowledge(query string, entries []KnowledgeEntry) []KnowledgeEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var matched []KnowledgeEntry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Question), q) ||
			strings.Contains(strings.ToLower(e.Answer), q) {
			matched = append(matched, e)
			continue
		}
		for _, kw := range e.Keywords {
			k := strings.ToLower(strings.TrimSpace(kw))
			if k == "" {
				continue
			}
			if strings.Contains(q, k) || strings.Contains(k, q) {
				matched = append(matched, e)
				break
			}
		}
	}
	return matched
}

// topic keyword sets for the canned responses. The site audience is mixed
// Vietnamese/English, so both languages are recognized.
var (
	nameWords     = []string{"tên", "name", "bạn là ai", "who are you"}
	skillWords    = []string{"kỹ năng", "skill", "công nghệ", "technology", "tech"}
	projectWords  = []string{"dự án", "project", "làm gì", "built"}
	contactWords  = []string{"liên hệ", "contact", "email", "reach"}
	certWords     = []string{"chứng chỉ", "certificate", "course", "học"}
	greetingWords = []string{"xin chào", "hello", "hi", "chào", "hey"}
	thanksWords   = []string{"cảm ơn", "thank"}
)

func containsAny(msg string, words []string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

// ruleBased is the deterministic responder: knowledge base first, then the
// fixed topic rules, then a default pointer back to the topics it knows.
func (s *Service) ruleBased(message string, pctx Context, knowledge []KnowledgeEntry) string {
	if matched := MatchKnowledge(message, knowledge); len(matched) > 0 {
		return matched[0].Answer
	}

	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, greetingWords) && !containsAny(msg, nameWords):
		return fmt.Sprintf("Xin chào! 👋 I'm %s's portfolio assistant. Ask me about skills, projects, certificates, or how to get in touch.", pctx.who())
	case containsAny(msg, nameWords):
		title := pctx.Title
		if title == "" {
			title = "developer"
		}
		return fmt.Sprintf("I'm the assistant for %s, a %s. What would you like to know — skills, projects, or experience?", pctx.who(), title)
	case containsAny(msg, skillWords):
		names := featuredSkillNames(pctx.Skills)
		if len(names) == 0 {
			return fmt.Sprintf("%s hasn't listed any skills yet — check back soon!", pctx.who())
		}
		return fmt.Sprintf("Main technologies: 🛠️\n%s\nWant details on any of them?", bulletList(names))
	case containsAny(msg, projectWords):
		titles := featuredProjectTitles(pctx.Projects)
		if len(titles) == 0 {
			return fmt.Sprintf("%s hasn't published any projects yet.", pctx.who())
		}
		return fmt.Sprintf("Some projects worth a look: 🚀\n%s\nAsk about any of them for more detail.", bulletList(titles))
	case containsAny(msg, contactWords):
		if pctx.Email != "" {
			return fmt.Sprintf("You can reach %s at %s, or use the contact form on this site. 📧", pctx.who(), pctx.Email)
		}
		return "The contact form on this site is the best way to get in touch. 📧"
	case containsAny(msg, certWords):
		var titles []string
		for _, c := range pctx.Certificates {
			titles = append(titles, c.Title)
		}
		if len(titles) == 0 {
			return fmt.Sprintf("%s hasn't listed any certificates yet.", pctx.who())
		}
		return fmt.Sprintf("Certificates earned: 🏆\n%s", bulletList(titles))
	case containsAny(msg, thanksWords):
		return "You're welcome! 😊 Ask away if anything else about the portfolio comes to mind."
	default:
		return fmt.Sprintf("Thanks for asking! I can tell you about %s's skills, projects, certificates, and how to get in touch. What would you like to know?", pctx.who())
	}
}

// featuredSkillNames prefers featured skills, falling back to all of them.
func featuredSkillNames(skills []SkillInfo) []string {
	var featured, all []string
	for _, s := range skills {
		all = append(all, s.Name)
		if s.Featured {
			featured = append(featured, s.Name)
		}
	}
	if len(featured) > 0 {
		return featured
	}
	return all
}

func featuredProjectTitles(projects []ProjectInfo) []string {
	var featured, all []string
	for _, p := range projects {
		all = append(all, p.Title)
		if p.Featured {
			featured = append(featured, p.Title)
		}
	}
	if len(featured) > 0 {
		return featured
	}
	return all
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("• ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
