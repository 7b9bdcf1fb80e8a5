package folio

import (
	"encoding/json"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// BlockType discriminates which logical entity a content block represents.
// Once a block is created its type is never reassigned; re-typing a block is
// unsupported.
type BlockType string

const (
	BlockProject     BlockType = "project"
	BlockSkill       BlockType = "skill"
	BlockCertificate BlockType = "certificate"
	BlockSocial      BlockType = "social"
	BlockRole        BlockType = "role"
	BlockCustom      BlockType = "custom"
)

// BlockTypes lists every recognized discriminator tag.
var BlockTypes = []BlockType{BlockProject, BlockSkill, BlockCertificate, BlockSocial, BlockRole, BlockCustom}

// ValidBlockType reports whether t is a recognized discriminator.
func ValidBlockType(t BlockType) bool {
	for _, known := range BlockTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ContentBlock is the raw polymorphic row underlying most portfolio
// entities. URL and Metadata are stored as text: URL may be a plain string
// or a JSON object, Metadata is a JSON object that older rows sometimes
// carry double-encoded. Neither shape is guaranteed by the schema, only by
// convention, so the projectors below tolerate both.
type ContentBlock struct {
	ID              int64     `json:"id"`
	Type            BlockType `json:"type"`
	Title           string    `json:"title"`
	Subtitle        string    `json:"subtitle"`
	Description     string    `json:"description"`
	LongDescription string    `json:"long_description"`
	URL             string    `json:"url"`
	Metadata        string    `json:"metadata"`
	IsFeatured      bool      `json:"is_featured"`
	DisplayOrder    int       `json:"display_order"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
}

// Technology is a renderable tech chip. Color is empty for free-form tags
// that have no technologies row behind them; templates use that to pick a
// plain chip over a colored one.
type Technology struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Project is the projected view of a type="project" block.
// Every field is always set: string fields default to "", TechStack to an
// empty slice and Category to "website", so consumers render unconditionally.
type Project struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	LongDescription string       `json:"long_description"`
	ImageURL        string       `json:"image_url"`
	URL             string       `json:"url"`
	GithubURL       string       `json:"github_url"`
	DemoURL         string       `json:"demo_url"`
	Category        string       `json:"category"`
	TechStack       []Technology `json:"tech_stack"`
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date"`
	DurationMonths  int          `json:"duration_months"`
	IsFeatured      bool         `json:"is_featured"`
	DisplayOrder    int          `json:"display_order"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
}

// Skill is the projected view of a type="skill" block. Subtitle doubles as
// the category when metadata carries none.
type Skill struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Proficiency     string `json:"proficiency"`
	YearsExperience int    `json:"years_experience"`
	IconURL         string `json:"icon_url"`
	IsFeatured      bool   `json:"is_featured"`
	DisplayOrder    int    `json:"display_order"`
}

// Certificate is the projected view of a type="certificate" block.
type Certificate struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Issuer       string `json:"issuer"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	Link         string `json:"link"`
	CredentialID string `json:"credential_id"`
	IssueDate    string `json:"issue_date"`
	DisplayOrder int    `json:"display_order"`
}

// SocialLink is the projected view of a type="social" block.
type SocialLink struct {
	ID           int64  `json:"id"`
	Platform     string `json:"platform"`
	URL          string `json:"url"`
	IconURL      string `json:"icon_url"`
	DisplayOrder int    `json:"display_order"`
}

// Role is the projected view of a type="role" block (the hero section's
// rotating job titles).
type Role struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	DisplayOrder int    `json:"display_order"`
}

// Projector maps raw content blocks to typed view models. Projection never
// fails: malformed nested JSON degrades to zero values. Degradation is not
// silent, though — each occurrence is logged at Warn and counted, so data
// quality drift shows up in logs and metrics without breaking a render.
type Projector struct {
	log      *zap.Logger
	degraded atomic.Int64
}

// NewProjector creates a Projector that reports degradations through log.
func NewProjector(log *zap.Logger) *Projector {
	return &Projector{log: log.Named("projection")}
}

// DegradedCount returns how many malformed metadata/url payloads have been
// swallowed since startup.
func (p *Projector) DegradedCount() int64 {
	return p.degraded.Load()
}

func (p *Projector) degrade(b ContentBlock, field string) {
	p.degraded.Add(1)
	p.log.Warn("malformed block payload, using defaults",
		zap.Int64("block_id", b.ID),
		zap.String("block_type", string(b.Type)),
		zap.String("field", field))
}

// meta parses a block's metadata into a generic map. A missing object
// yields an empty map; a malformed one degrades to an empty map.
// Double-encoded payloads (a JSON string containing a JSON object) get a
// second parse attempt before giving up.
func (p *Projector) meta(b ContentBlock) map[string]any {
	raw := strings.TrimSpace(b.Metadata)
	if raw == "" || raw == "null" {
		return map[string]any{}
	}
	m := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &m); err == nil {
		return m
	}
	var nested string
	if err := json.Unmarshal([]byte(raw), &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &m); err == nil {
			return m
		}
	}
	p.degrade(b, "metadata")
	return map[string]any{}
}

// urlParts splits a block's url column into structured fields and a plain
// URL. Legacy rows store a bare string; newer rows store a JSON object with
// keys like image_url, website_url, github_url. A string that looks like an
// object but fails to parse falls back to being treated as a plain URL.
func (p *Projector) urlParts(b ContentBlock) (fields map[string]any, plain string) {
	raw := strings.TrimSpace(b.URL)
	if raw == "" {
		return nil, ""
	}
	if strings.HasPrefix(raw, "{") {
		m := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return m, ""
		}
		p.degrade(b, "url")
	}
	return nil, raw
}

// ProjectView projects a type="project" block.
func (p *Projector) ProjectView(b ContentBlock) Project {
	meta := p.meta(b)
	urlFields, plainURL := p.urlParts(b)

	out := Project{
		ID:              b.ID,
		Title:           b.Title,
		Description:     b.Description,
		LongDescription: b.LongDescription,
		ImageURL:        firstString(str(urlFields, "image_url"), str(urlFields, "img_url"), plainURL),
		URL:             firstString(str(urlFields, "website_url"), str(urlFields, "web_url"), str(urlFields, "url")),
		GithubURL:       firstString(str(urlFields, "github_url"), str(meta, "github_url")),
		DemoURL:         str(meta, "demo_url"),
		Category:        firstString(str(meta, "category"), "website"),
		TechStack:       p.techStack(b, meta["tech_stack"]),
		StartDate:       str(meta, "start_date"),
		EndDate:         str(meta, "end_date"),
		DurationMonths:  num(meta, "duration_months"),
		IsFeatured:      b.IsFeatured,
		DisplayOrder:    b.DisplayOrder,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if meta["technologies"] != nil && len(out.TechStack) == 0 {
		out.TechStack = p.techStack(b, meta["technologies"])
	}
	return out
}

// SkillView projects a type="skill" block.
func (p *Projector) SkillView(b ContentBlock) Skill {
	meta := p.meta(b)
	urlFields, plainURL := p.urlParts(b)
	return Skill{
		ID:              b.ID,
		Name:            b.Title,
		Category:        firstString(str(meta, "category"), b.Subtitle),
		Proficiency:     str(meta, "proficiency"),
		YearsExperience: num(meta, "years_experience"),
		IconURL:         firstString(str(meta, "icon_url"), str(urlFields, "icon_url"), plainURL),
		IsFeatured:      b.IsFeatured,
		DisplayOrder:    b.DisplayOrder,
	}
}

// CertificateView projects a type="certificate" block. Subtitle carries the
// issuer.
func (p *Projector) CertificateView(b ContentBlock) Certificate {
	meta := p.meta(b)
	urlFields, plainURL := p.urlParts(b)
	return Certificate{
		ID:           b.ID,
		Title:        b.Title,
		Issuer:       b.Subtitle,
		Description:  b.Description,
		ImageURL:     firstString(str(urlFields, "image_url"), str(urlFields, "img_url"), plainURL),
		Link:         firstString(str(meta, "link"), str(urlFields, "web_url"), str(urlFields, "website_url")),
		CredentialID: str(meta, "credential_id"),
		IssueDate:    str(meta, "issue_date"),
		DisplayOrder: b.DisplayOrder,
	}
}

// SocialLinkView projects a type="social" block.
func (p *Projector) SocialLinkView(b ContentBlock) SocialLink {
	meta := p.meta(b)
	urlFields, plainURL := p.urlParts(b)
	return SocialLink{
		ID:           b.ID,
		Platform:     firstString(str(meta, "platform"), b.Title),
		URL:          firstString(str(urlFields, "web_url"), str(urlFields, "website_url"), str(urlFields, "url"), plainURL),
		IconURL:      firstString(str(meta, "icon_url"), str(urlFields, "icon_url")),
		DisplayOrder: b.DisplayOrder,
	}
}

// RoleView projects a type="role" block.
func (p *Projector) RoleView(b ContentBlock) Role {
	return Role{ID: b.ID, Title: b.Title, DisplayOrder: b.DisplayOrder}
}

// techStack normalizes the two historical shapes of a block's tech list:
// a plain array of strings (free-form tags) and an array of joined
// technologies rows ({id, name, color}). Both land in []Technology; tags
// keep an empty Color. Anything unrecognized degrades to an empty list.
func (p *Projector) techStack(b ContentBlock, v any) []Technology {
	if v == nil {
		return []Technology{}
	}
	items, ok := v.([]any)
	if !ok {
		p.degrade(b, "tech_stack")
		return []Technology{}
	}
	out := make([]Technology, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if name := strings.TrimSpace(t); name != "" {
				out = append(out, Technology{Name: name})
			}
		case map[string]any:
			tech := Technology{
				Name:  str(t, "name"),
				Color: str(t, "color"),
			}
			if id, ok := t["id"].(float64); ok {
				tech.ID = int64(id)
			}
			if tech.Name != "" {
				out = append(out, tech)
			}
		default:
			p.degrade(b, "tech_stack")
		}
	}
	return out
}

// str reads a string field from a decoded JSON map, returning "" when the
// map is nil, the key is absent, or the value is not a string.
func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// num reads a numeric field, truncating to int. JSON numbers decode as
// float64; string-typed numbers in old rows are not recovered.
func num(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	f, _ := m[key].(float64)
	return int(f)
}

// firstString returns the first non-empty candidate.
func firstString(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
