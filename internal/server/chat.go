package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"healthqa/internal/dialogue"
	"healthqa/internal/pipeline"
	"healthqa/internal/session"
)

// ChatHandler wires the clarification engine, session store and answer
// pipeline behind the chat endpoint.
type ChatHandler struct {
	Sessions session.Store
	Engine   *dialogue.Engine
	Pipeline *pipeline.Orchestrator
	TopK     int
	Logger   *log.Logger
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
}

// chat handles one inbound message. Malformed input is rejected at the
// boundary; beyond it the response is always successful-shaped, with
// failures surfaced inside the answer field.
func (h *ChatHandler) chat(c echo.Context) error {
	start := time.Now()

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}

	ctx := c.Request().Context()
	sid, err := h.Sessions.Ensure(ctx, req.SessionID)
	if err != nil {
		chatRequests.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var dec dialogue.Decision
	if err := h.Sessions.Update(ctx, sid, func(st *session.State) {
		dec = h.Engine.Advance(st, req.Message)
	}); err != nil {
		chatRequests.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if dec.NeedsClarification {
		chatRequests.WithLabelValues("clarification").Inc()
		chatDuration.Observe(time.Since(start).Seconds())
		q := dec.Question
		return c.JSON(http.StatusOK, ChatResponse{
			SessionID:             sid,
			NeedsClarification:    true,
			ClarificationQuestion: &q,
			EvidenceList:          []EvidenceItem{},
			Disclaimer:            Disclaimer,
		})
	}

	answer, evidences, err := h.Pipeline.Answer(ctx, dec.Query, h.TopK)
	if err != nil {
		chatRequests.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	if len(evidences) == 0 {
		retrievalEmpty.Inc()
		chatRequests.WithLabelValues("degraded").Inc()
	} else {
		evidenceGraded.Add(float64(len(evidences)))
		chatRequests.WithLabelValues("answered").Inc()
	}

	if err := h.Sessions.Update(ctx, sid, func(st *session.State) {
		st.Transcript = append(st.Transcript, session.Message{Role: "assistant", Content: answer})
	}); err != nil {
		h.Logger.Printf("transcript append failed for %s: %v", sid, err)
	}

	chatDuration.Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, ChatResponse{
		SessionID:          sid,
		NeedsClarification: false,
		Answer:             &answer,
		EvidenceList:       toEvidenceItems(evidences),
		Disclaimer:         Disclaimer,
	})
}
