package server

import (
	"healthqa/internal/grading"
	"healthqa/internal/session"
)

// Disclaimer accompanies every response, clarification or answer alike.
const Disclaimer = "本系统提供的信息仅供学术研究和参考，不能作为专业的医疗诊断和治疗建议。如有任何健康问题，请务必咨询执业医师。"

// ChatRequest is the inbound message shape.
type ChatRequest struct {
	SessionID           string            `json:"session_id"`
	Message             string            `json:"message"`
	ConversationHistory []session.Message `json:"conversation_history,omitempty"`
}

// ChatResponse is the response envelope for both branches: a clarification
// question or a generated answer with graded evidence.
type ChatResponse struct {
	SessionID             string         `json:"session_id"`
	NeedsClarification    bool           `json:"needs_clarification"`
	ClarificationQuestion *string        `json:"clarification_question"`
	Answer                *string        `json:"answer"`
	EvidenceList          []EvidenceItem `json:"evidence_list"`
	Disclaimer            string         `json:"disclaimer"`
}

// EvidenceItem is the wire shape of one graded passage.
type EvidenceItem struct {
	Content           string  `json:"content"`
	SourceURL         string  `json:"source_url"`
	SourceName        string  `json:"source_name"`
	PublicationDate   string  `json:"publication_date,omitempty"`
	Title             string  `json:"title"`
	EvidenceLevel     int     `json:"evidence_level"`
	EvidenceLevelName string  `json:"evidence_level_name"`
	EvidenceScore     float64 `json:"evidence_score"`
	LevelExplanation  string  `json:"level_explanation"`
}

func toEvidenceItems(evidences []grading.Graded) []EvidenceItem {
	out := make([]EvidenceItem, 0, len(evidences))
	for _, ev := range evidences {
		out = append(out, EvidenceItem{
			Content:           ev.Passage.Content,
			SourceURL:         ev.Passage.SourceURL,
			SourceName:        ev.Passage.SourceName,
			PublicationDate:   ev.Passage.PublicationDate,
			Title:             ev.Passage.Title,
			EvidenceLevel:     int(ev.Level),
			EvidenceLevelName: ev.Level.String(),
			EvidenceScore:     ev.Score,
			LevelExplanation:  ev.Rationale,
		})
	}
	return out
}
