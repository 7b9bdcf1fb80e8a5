package folio

import (
	"context"
)

// Portfolio composes the store and the projection layer into typed read
// accessors, one per entity kind. Each call re-fetches from the store; the
// snapshot loader in folio.go decides how often that actually happens.
type Portfolio struct {
	store *Store
	proj  *Projector
}

// NewPortfolio creates the read-side accessor set.
func NewPortfolio(store *Store, proj *Projector) *Portfolio {
	return &Portfolio{store: store, proj: proj}
}

// Projects returns projected project blocks with their joined technologies.
// A block whose metadata already carries a tech_stack keeps it; otherwise
// the join table fills it in.
func (p *Portfolio) Projects(ctx context.Context) ([]Project, error) {
	blocks, err := p.store.ListBlocks(ctx, BlockProject)
	if err != nil {
		return nil, err
	}
	linked, err := p.store.TechnologiesByProject(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(blocks))
	for _, b := range blocks {
		pr := p.proj.ProjectView(b)
		if len(pr.TechStack) == 0 {
			if techs, ok := linked[b.ID]; ok {
				pr.TechStack = techs
			}
		}
		projects = append(projects, pr)
	}
	return projects, nil
}

// Skills returns projected skill blocks.
func (p *Portfolio) Skills(ctx context.Context) ([]Skill, error) {
	blocks, err := p.store.ListBlocks(ctx, BlockSkill)
	if err != nil {
		return nil, err
	}
	skills := make([]Skill, 0, len(blocks))
	for _, b := range blocks {
		skills = append(skills, p.proj.SkillView(b))
	}
	return skills, nil
}

// Certificates returns projected certificate blocks.
func (p *Portfolio) Certificates(ctx context.Context) ([]Certificate, error) {
	blocks, err := p.store.ListBlocks(ctx, BlockCertificate)
	if err != nil {
		return nil, err
	}
	certs := make([]Certificate, 0, len(blocks))
	for _, b := range blocks {
		certs = append(certs, p.proj.CertificateView(b))
	}
	return certs, nil
}

// Roles returns projected role blocks.
func (p *Portfolio) Roles(ctx context.Context) ([]Role, error) {
	blocks, err := p.store.ListBlocks(ctx, BlockRole)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, 0, len(blocks))
	for _, b := range blocks {
		roles = append(roles, p.proj.RoleView(b))
	}
	return roles, nil
}

// SocialLinks returns projected social blocks.
func (p *Portfolio) SocialLinks(ctx context.Context) ([]SocialLink, error) {
	blocks, err := p.store.ListBlocks(ctx, BlockSocial)
	if err != nil {
		return nil, err
	}
	links := make([]SocialLink, 0, len(blocks))
	for _, b := range blocks {
		links = append(links, p.proj.SocialLinkView(b))
	}
	return links, nil
}

// Profile returns the singleton profile row, or ErrNotFound when none has
// been created yet.
func (p *Portfolio) Profile(ctx context.Context) (Profile, error) {
	return p.store.GetProfile(ctx)
}

// GroupSkills buckets skill names by category, preserving the incoming
// (display_order) ordering within each bucket. Skills without a category
// land under "Other".
func GroupSkills(skills []Skill) map[string][]string {
	groups := make(map[string][]string)
	for _, s := range skills {
		cat := s.Category
		if cat == "" {
			cat = "Other"
		}
		groups[cat] = append(groups[cat], s.Name)
	}
	return groups
}

// settingDefaults centralizes the fallback copy for every site_settings key
// consumers read. Callers go through Settings.Get so the literals live in
// exactly one place.
var settingDefaults = map[string]string{
	"hero_title":            "Hi, I'm",
	"hero_subtitle":         "Welcome to my portfolio",
	"about_title":           "About Me",
	"projects_title":        "Projects",
	"projects_subtitle":     "Things I've built",
	"certificates_title":    "Certificates",
	"certificates_subtitle": "Courses and credentials",
	"typing_speed":          "100",
	"typing_delay":          "2000",
}

// Settings is the site_settings collection folded into a lookup map.
type Settings map[string]string

// Get returns the stored value for key, the declared default when the key
// is absent, or "" for keys with no declared default.
func (s Settings) Get(key string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return settingDefaults[key]
}

// Resolved returns the settings map with every declared default filled in
// for missing keys, ready to hand to a client in one response.
func (s Settings) Resolved() map[string]string {
	out := make(map[string]string, len(s)+len(settingDefaults))
	for k, v := range settingDefaults {
		out[k] = v
	}
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SiteSettings loads and folds the full settings collection.
func (p *Portfolio) SiteSettings(ctx context.Context) (Settings, error) {
	rows, err := p.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings := make(Settings, len(rows))
	for _, r := range rows {
		settings[r.Key] = r.Value
	}
	return settings, nil
}
