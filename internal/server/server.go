package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthqa/config"
	"healthqa/internal/dialogue"
	"healthqa/internal/grading"
	"healthqa/internal/pipeline"
	"healthqa/internal/retrieval"
	"healthqa/internal/session"
	"healthqa/provider"
)

// Run wires all dependencies and serves the API until the listener stops.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "健康问答助手 API", "status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	sessions, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	defer sessions.Close()

	index, err := retrieval.Open(cfg.Retrieval.IndexPath)
	if err != nil {
		return fmt.Errorf("knowledge base index unavailable (run `healthqa ingest` first): %w", err)
	}
	defer index.Close()

	generator, err := provider.NewGenerator(cfg.LLM)
	if err != nil {
		return err
	}

	grader := grading.NewGrader(grading.NewPolicy(cfg.Grading), nil)
	orch := pipeline.NewOrchestrator(
		index,
		grader,
		generator,
		cfg.Retrieval.Timeout,
		log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	)

	ch := &ChatHandler{
		Sessions: sessions,
		Engine:   dialogue.New(cfg.Dialogue),
		Pipeline: orch,
		TopK:     cfg.Retrieval.TopK,
		Logger:   log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
	}
	ch.Register(e.Group("/api"))

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":8000"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
