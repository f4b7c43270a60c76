package grading

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"healthqa/internal/retrieval"
)

// Level is the ordinal credibility grade, modelled on a simplified GRADE
// scale.
type Level int

const (
	LevelVeryLow Level = iota + 1
	LevelLow
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "HIGH"
	case LevelMedium:
		return "MEDIUM"
	case LevelLow:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// Graded is a passage annotated with its credibility grade. Grading is
// informational only; it never reorders retrieval results.
type Graded struct {
	Passage   retrieval.Passage
	Level     Level
	Score     float64
	Rationale string
}

// Grader maps passage provenance metadata to a credibility grade. It is a
// total function: malformed or missing metadata degrades to documented
// defaults, never to an error. The clock is injectable so recency scoring
// is deterministic under test.
type Grader struct {
	policy Policy
	now    func() time.Time
}

func NewGrader(policy Policy, now func() time.Time) *Grader {
	if now == nil {
		now = time.Now
	}
	return &Grader{policy: policy, now: now}
}

// Grade computes the composite credibility score:
// authority*0.5 + recency*0.3 + docType*0.2, each sub-score on a 0..100
// scale, and maps it to a grade: >=90 HIGH, >=80 MEDIUM, >=60 LOW, else
// VERY_LOW. The rationale concatenates the three component explanations.
func (g *Grader) Grade(p retrieval.Passage) Graded {
	authScore, authExp := g.authorityScore(p.SourceURL, p.SourceName)
	recScore, recExp := g.recencyScore(p.PublicationDate)
	bonus, docExp := g.docTypeBonus(p.Title, p.DocumentType, p.Content)

	// The raw bonus is clipped at 20 points and rescaled to the common
	// 0..100 sub-score range before weighting.
	docScore := math.Min(bonus, 20) * 5

	total := authScore*0.5 + recScore*0.3 + docScore*0.2
	total = math.Round(math.Max(0, math.Min(100, total))*100) / 100

	var level Level
	switch {
	case total >= 90:
		level = LevelHigh
	case total >= 80:
		level = LevelMedium
	case total >= 60:
		level = LevelLow
	default:
		level = LevelVeryLow
	}

	rationale := fmt.Sprintf("证据等级 %s(Level %d): %s; %s; %s", level, level, authExp, recExp, docExp)

	return Graded{Passage: p, Level: level, Score: total, Rationale: rationale}
}

// authorityScore resolves the registrable domain against the tier table,
// then lets source-name keywords raise (never lower) the result.
func (g *Grader) authorityScore(sourceURL, sourceName string) (float64, string) {
	domain := extractDomain(sourceURL)
	score, label := g.policy.AuthorityDefault, "default"
	if domain != "" {
		if s, ok := g.lookupDomain(domain); ok {
			score, label = s, domain
		} else {
			label = domain
		}
	}

	nameLower := strings.ToLower(sourceName)
	for _, floor := range g.policy.NameFloors {
		for _, kw := range floor.Keywords {
			if strings.Contains(nameLower, kw) {
				score = math.Max(score, floor.Floor)
			}
		}
	}

	return score, fmt.Sprintf("来源权威性得分: %.0f/100 (域名: %s)", score, label)
}

// lookupDomain walks the host's label suffixes so a subdomain inherits the
// tier of its registrable parent (news.who.int matches who.int).
func (g *Grader) lookupDomain(host string) (float64, bool) {
	for host != "" {
		if s, ok := g.policy.AuthorityTiers[host]; ok {
			return s, true
		}
		dot := strings.Index(host, ".")
		if dot < 0 {
			break
		}
		host = host[dot+1:]
	}
	return 0, false
}

var recencyLayouts = []string{"2006-01-02", "2006/01/02", "2006-01", "2006"}

// recencyScore buckets the publication date by age: <1y 95, <2y 85, <5y 75,
// older decays linearly down to the configured floor. Missing or
// unparseable dates get a neutral 70 so undated-but-authoritative sources
// are not penalized.
func (g *Grader) recencyScore(publicationDate string) (float64, string) {
	trimmed := strings.TrimSpace(publicationDate)
	if trimmed == "" {
		return 70, "未获取发布日期（unknown recency），给予默认时效性得分: 70/100"
	}

	var published time.Time
	parsed := false
	for _, layout := range recencyLayouts {
		if len(trimmed) < len(layout) {
			continue
		}
		if t, err := time.Parse(layout, trimmed[:len(layout)]); err == nil {
			published = t
			parsed = true
			break
		}
	}
	if !parsed {
		return 70, "日期格式无法解析（unknown recency），默认时效性得分: 70/100"
	}

	days := int(g.now().Sub(published).Hours() / 24)
	var score float64
	switch {
	case days < 365:
		score = 95
	case days < 730:
		score = 85
	case days < 1825:
		score = 75
	default:
		score = math.Max(g.policy.RecencyFloor, 80-float64(days)/365*g.policy.RecencySlope)
	}
	return score, fmt.Sprintf("时效性得分: %.0f/100 (发布于 %d 天前)", score, days)
}

// docTypeBonus scans title, document type tag and content for type signals
// and takes the maximum matching delta rather than the sum, so overlapping
// keywords are not double counted.
func (g *Grader) docTypeBonus(title, documentType, content string) (float64, string) {
	text := strings.ToLower(title + " " + documentType + " " + content)

	var matched []string
	bonus, found := 0.0, false
	for keyword, points := range g.policy.DocTypeBonus {
		if !strings.Contains(text, keyword) {
			continue
		}
		matched = append(matched, keyword)
		if !found || points > bonus {
			bonus = points
			found = true
		}
	}
	sort.Strings(matched)

	label := "无"
	if len(matched) > 0 {
		label = strings.Join(matched, ", ")
	}
	return bonus, fmt.Sprintf("文档类型加分: %+.0f (%s)", bonus, label)
}

// extractDomain pulls the lowercased host from a URL, dropping any port and
// a leading www. Malformed input yields "" and the default tier applies.
func extractDomain(sourceURL string) string {
	if strings.TrimSpace(sourceURL) == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
