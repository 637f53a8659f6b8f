package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"smartcopy/config"
	"smartcopy/internal/models"

	"github.com/gin-gonic/gin"
)

// PublishedLister is the slice of the blog repository the sitemap needs.
type PublishedLister interface {
	ListPublished(page, limit int) ([]models.BlogPost, int64, error)
}

// SEOHandler serves the generated sitemap and robots.txt. The blog
// repository is its only collaborator: published posts become sitemap
// entries with lastmod from their update time.
type SEOHandler struct {
	cfg      *config.SiteConfig
	blogRepo PublishedLister
}

func NewSEOHandler(cfg *config.SiteConfig, blogRepo PublishedLister) *SEOHandler {
	return &SEOHandler{cfg: cfg, blogRepo: blogRepo}
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Static marketing pages with fixed changefreq/priority per category.
var staticPages = []sitemapURL{
	{Loc: "/", ChangeFreq: "daily", Priority: "1.0"},
	{Loc: "/pricing", ChangeFreq: "weekly", Priority: "0.8"},
	{Loc: "/about", ChangeFreq: "monthly", Priority: "0.5"},
	{Loc: "/contact", ChangeFreq: "monthly", Priority: "0.5"},
	{Loc: "/blog", ChangeFreq: "daily", Priority: "0.9"},
}

// Authenticated/app routes excluded from crawling.
var disallowedPaths = []string{
	"/dashboard", "/admin", "/orders", "/deposit", "/login", "/register",
	"/verify", "/forgot-password", "/reset-password", "/api/",
}

// Sitemap handles GET /sitemap.xml per the sitemaps.org 0.9 schema.
func (h *SEOHandler) Sitemap(c *gin.Context) {
	body, err := h.BuildSitemap()
	if err != nil {
		c.String(http.StatusInternalServerError, "sitemap generation failed")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// BuildSitemap renders the urlset: static entries plus one per PUBLISHED post.
func (h *SEOHandler) BuildSitemap() ([]byte, error) {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range staticPages {
		entry := p
		entry.Loc = h.cfg.BaseURL + p.Loc
		set.URLs = append(set.URLs, entry)
	}
	posts, _, err := h.blogRepo.ListPublished(1, 1000)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.cfg.BaseURL + "/blog/" + p.Slug,
			LastMod:    p.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Robots handles GET /robots.txt: allow-all with an explicit disallow list
// for app routes plus the Sitemap directive.
func (h *SEOHandler) Robots(c *gin.Context) {
	c.String(http.StatusOK, h.BuildRobots())
}

func (h *SEOHandler) BuildRobots() string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	for _, p := range disallowedPaths {
		fmt.Fprintf(&b, "Disallow: %s\n", p)
	}
	fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", h.cfg.BaseURL)
	return b.String()
}
