package dialogue

import (
	"strings"
	"unicode/utf8"

	"healthqa/config"
	"healthqa/internal/session"
)

// Engine decides whether a query needs clarification, generates the
// clarification question and rewrites the original query with collected
// answers. It is a pure function of query text and turn counters; all
// mutable conversation state lives in the session store.
type Engine struct {
	maxTurns int
	minRunes int
}

// Decision is the outcome of one clarification step: either a question to
// send back, or a resolved query ready for retrieval.
type Decision struct {
	NeedsClarification bool
	Question           string
	Query              string
}

func New(cfg config.DialogueConfig) *Engine {
	maxTurns := cfg.MaxClarificationTurns
	if maxTurns <= 0 {
		maxTurns = 3
	}
	minRunes := cfg.MinQueryRunes
	if minRunes <= 0 {
		minRunes = 5
	}
	return &Engine{maxTurns: maxTurns, minRunes: minRunes}
}

// Decide evaluates a query at the given clarification turn. Once turnCount
// reaches the configured maximum, resolution is forced regardless of
// remaining ambiguity so every conversation terminates.
func (e *Engine) Decide(query string, turnCount int) Decision {
	if e.needsClarification(query, turnCount) {
		return Decision{NeedsClarification: true, Question: e.Question(query)}
	}
	return Decision{Query: strings.TrimSpace(query)}
}

func (e *Engine) needsClarification(query string, turnCount int) bool {
	if turnCount >= e.maxTurns {
		return false
	}
	return e.isVague(query) || e.missingContext(query)
}

func (e *Engine) isVague(query string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(trimmed) < e.minRunes {
		return true
	}
	for _, p := range vaguePatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

func (e *Engine) missingContext(query string) bool {
	trimmed := strings.TrimSpace(query)
	for _, p := range missingContextPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// Question produces the clarification question for a query: the first
// matching category rule wins, generic templates cover the rest.
func (e *Engine) Question(query string) string {
	for _, r := range questionRules {
		if r.match(query) {
			return templates[r.category]
		}
	}
	if e.isVague(query) && utf8.RuneCountInString(strings.TrimSpace(query)) < 20 {
		return templates[CategoryGeneral]
	}
	return templates[CategorySymptom]
}

// Rewrite merges the original query with the clarification answers in
// arrival order. With no answers it returns the trimmed original unchanged.
func (e *Engine) Rewrite(original string, answers []string) string {
	combined := strings.TrimSpace(original)
	for _, ans := range answers {
		ans = strings.TrimSpace(ans)
		if ans == "" {
			continue
		}
		combined += "。补充信息：" + ans
	}
	return combined
}

// Advance runs one step of the clarification state machine against session
// state. A message is treated as an answer while a question is pending
// (answers collected < questions asked); any other message starts a fresh
// exchange and resets the turn counter so a new topic gets its full
// clarification budget.
func (e *Engine) Advance(st *session.State, message string) Decision {
	followUp := st.ClarificationTurns >= 1 && len(st.ClarificationAnswers) < st.ClarificationTurns

	if !followUp {
		st.OriginalQuery = message
		st.ClarificationAnswers = nil
		st.ClarificationTurns = 0
		st.ResolvedQuery = ""
		st.Transcript = []session.Message{{Role: "user", Content: message}}

		if e.needsClarification(message, 0) {
			q := e.Question(message)
			st.ClarificationTurns = 1
			st.Transcript = append(st.Transcript, session.Message{Role: "assistant", Content: q})
			return Decision{NeedsClarification: true, Question: q}
		}
		st.ResolvedQuery = strings.TrimSpace(message)
		return Decision{Query: st.ResolvedQuery}
	}

	st.ClarificationAnswers = append(st.ClarificationAnswers, message)
	st.Transcript = append(st.Transcript, session.Message{Role: "user", Content: message})

	if e.needsClarification(st.OriginalQuery, st.ClarificationTurns) {
		q := e.Question(st.OriginalQuery)
		st.ClarificationTurns++
		st.Transcript = append(st.Transcript, session.Message{Role: "assistant", Content: q})
		return Decision{NeedsClarification: true, Question: q}
	}

	st.ResolvedQuery = e.Rewrite(st.OriginalQuery, st.ClarificationAnswers)
	return Decision{Query: st.ResolvedQuery}
}

func matchAny(keywords ...string) func(string) bool {
	return func(query string) bool {
		for _, kw := range keywords {
			if strings.Contains(query, kw) {
				return true
			}
		}
		return false
	}
}
