// Package seo generates the sitemap.xml and robots.txt documents served to
// crawlers.
package seo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"quillpress/internal/models"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// staticPages are the frontend routes listed ahead of the content.
var staticPages = []struct {
	path, freq, priority string
}{
	{"/", "daily", "1.0"},
	{"/blog", "daily", "0.9"},
	{"/about", "monthly", "0.7"},
}

func lastMod(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Sitemap renders the sitemap for baseURL. posts must be published posts.
// Posts and categories are listed most recently updated first.
func Sitemap(baseURL string, posts []models.Post, categories []models.Category, now time.Time) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlSet{
		XMLNS: sitemapNS,
		URLs:  make([]entry, 0, len(staticPages)+len(posts)+len(categories)),
	}

	for _, p := range staticPages {
		set.URLs = append(set.URLs, entry{Loc: base + p.path, LastMod: lastMod(now), ChangeFreq: p.freq, Priority: p.priority})
	}

	posts = append([]models.Post(nil), posts...)
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].UpdatedAt.After(posts[j].UpdatedAt) })
	for _, p := range posts {
		set.URLs = append(set.URLs, entry{Loc: base + p.URL(), LastMod: lastMod(p.UpdatedAt), ChangeFreq: "weekly", Priority: "0.8"})
	}

	categories = append([]models.Category(nil), categories...)
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].UpdatedAt.After(categories[j].UpdatedAt) })
	for _, c := range categories {
		set.URLs = append(set.URLs, entry{Loc: base + c.URL(), LastMod: lastMod(c.UpdatedAt), ChangeFreq: "weekly", Priority: "0.7"})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots renders robots.txt, pointing crawlers at the sitemap.
func Robots(baseURL string) []byte {
	base := strings.TrimRight(baseURL, "/")
	return fmt.Appendf(nil, "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", base)
}
