package grading

import "healthqa/config"

// Policy holds the grading tables. The compiled-in defaults mirror the
// published authority tiers; configuration entries merge on top so the
// policy can change without touching pipeline code.
type Policy struct {
	AuthorityTiers   map[string]float64
	AuthorityDefault float64
	NameFloors       []NameFloor
	DocTypeBonus     map[string]float64
	RecencyFloor     float64
	RecencySlope     float64
}

// NameFloor raises the authority score to a tier floor when the source name
// contains one of the keywords. Floors only ever raise a score obtained from
// the domain table, never lower it.
type NameFloor struct {
	Keywords []string
	Floor    float64
}

// defaultAuthorityTiers maps registrable domains to authority scores,
// from top international health authorities down to community forums.
var defaultAuthorityTiers = map[string]float64{
	// top-tier official health authorities
	"who.int":    100,
	"cdc.gov":    98,
	"nih.gov":    95,
	"cdc.gov.cn": 95,
	"nhc.gov.cn": 95,
	"gov.cn":     90,
	// established medical institutions
	"mayoclinic.org":      88,
	"mayoclinic.org.cn":   88,
	"medlineplus.gov":     85,
	"harvard.edu":         85,
	"clevelandclinic.org": 82,
	"webmd.com":           75,
	"healthline.com":      70,
	// reputable health portals
	"dxy.cn":            65,
	"baikemy.com":       65,
	"chunyuyisheng.com": 60,
	"wiki.cn":           55,
	"baike.baidu.com":   52,
	// community and forum sources
	"tieba.baidu.com": 35,
}

var defaultNameFloors = []NameFloor{
	{Keywords: []string{"who", "世界卫生组织"}, Floor: 98},
	{Keywords: []string{"cdc", "疾控"}, Floor: 95},
	{Keywords: []string{"mayo", "梅奥"}, Floor: 85},
}

// defaultDocTypeBonus assigns signed point deltas to document-type signals
// found in title, document type tag or content.
var defaultDocTypeBonus = map[string]float64{
	"guideline":         15,
	"临床指南":              15,
	"systematic review": 12,
	"系统综述":              12,
	"meta-analysis":     12,
	"荟萃分析":              12,
	"clinical trial":    10,
	"临床试验":              10,
	"official":          10,
	"fact sheet":        8,
	"encyclopedia":      5,
	"forum_post":        -5,
}

// NewPolicy merges configuration overrides over the compiled-in defaults.
func NewPolicy(cfg config.GradingConfig) Policy {
	p := Policy{
		AuthorityTiers:   make(map[string]float64, len(defaultAuthorityTiers)),
		AuthorityDefault: 40,
		NameFloors:       defaultNameFloors,
		DocTypeBonus:     make(map[string]float64, len(defaultDocTypeBonus)),
		RecencyFloor:     60,
		RecencySlope:     2,
	}
	for k, v := range defaultAuthorityTiers {
		p.AuthorityTiers[k] = v
	}
	for k, v := range defaultDocTypeBonus {
		p.DocTypeBonus[k] = v
	}
	for k, v := range cfg.AuthorityTiers {
		p.AuthorityTiers[k] = v
	}
	for k, v := range cfg.DocTypeBonus {
		p.DocTypeBonus[k] = v
	}
	if cfg.AuthorityDefault > 0 {
		p.AuthorityDefault = cfg.AuthorityDefault
	}
	if cfg.RecencyFloor > 0 {
		p.RecencyFloor = cfg.RecencyFloor
	}
	if cfg.RecencySlope > 0 {
		p.RecencySlope = cfg.RecencySlope
	}
	return p
}

// DefaultPolicy returns the compiled-in tables without overrides.
func DefaultPolicy() Policy {
	return NewPolicy(config.GradingConfig{})
}
