package kb

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-shiori/go-readability"
)

// Reference markers such as [1], ［2-5］ that crawlers leave behind.
var refMarkPattern = regexp.MustCompile(`[\[［]\s*\d+(\s*-\s*\d+)?\s*[\]］]?`)

// Boilerplate fragments that survive readability extraction on the crawled
// health portals.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)选择语言.*?English`),
	regexp.MustCompile(`(?i)Skip to main content`),
	regexp.MustCompile(`京ICP备\d+[号\-]?\d*`),
	regexp.MustCompile(`建议使用\d+\*\d+分辨率`),
	regexp.MustCompile(`(?is)Copyright\s*©.*?All rights reserved`),
	regexp.MustCompile(`版权所有`),
	regexp.MustCompile(`联系我们`),
	regexp.MustCompile(`网站地图`),
	regexp.MustCompile(`隐私政策`),
	regexp.MustCompile(`使用条款`),
	regexp.MustCompile(`播报\s*编辑`),
	regexp.MustCompile(`参考来源[:：]?`),
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanText normalises a passage of already-extracted text: HTML entities
// are decoded, control and zero-width characters dropped, reference markers
// and boilerplate removed, whitespace collapsed.
func CleanText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	t := html.UnescapeString(s)

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff' {
			continue
		}
		b.WriteRune(r)
	}
	t = b.String()

	t = refMarkPattern.ReplaceAllString(t, "")
	for _, p := range boilerplatePatterns {
		t = p.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(t, " "))
}

// ExtractHTML runs readability extraction over raw HTML and returns the
// cleaned article text and title. Used when a crawled document still
// carries markup instead of plain text.
func ExtractHTML(rawHTML, sourceURL string) (text, title string, err error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return "", "", fmt.Errorf("readability extraction: %w", err)
	}
	return CleanText(article.TextContent), strings.TrimSpace(article.Title), nil
}

// looksLikeHTML reports whether content still carries markup worth running
// through readability.
func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	return strings.HasPrefix(trimmed, "<!doctype html") ||
		strings.HasPrefix(trimmed, "<html") ||
		strings.Contains(trimmed, "<body") ||
		strings.Contains(trimmed, "</p>")
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})[年\-/](\d{1,2})[月\-/](\d{1,2})日?`),
	regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
	regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`),
	regexp.MustCompile(`(\d{4})\.(\d{1,2})\.(\d{1,2})`),
}

// NormalizeDate extracts a calendar date from free-form text and renders it
// as YYYY-MM-DD. Returns "" when nothing parseable is found; missing dates
// are tolerated downstream, the grader only loses the recency signal.
func NormalizeDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	for _, p := range datePatterns {
		m := p.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
		if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
			continue // rolled over, e.g. 2024-02-31
		}
		return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
	}
	return ""
}
