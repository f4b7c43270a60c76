package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"healthqa/internal/grading"
	"healthqa/internal/retrieval"
	"healthqa/provider"
)

// NoContentAnswer is returned when retrieval finds nothing; generation is
// skipped entirely in that case.
const NoContentAnswer = "抱歉，在知识库中未找到与您问题直接相关的内容。建议您咨询专业医生获取更准确的建议。"

// Orchestrator sequences retrieval, grading, prompt assembly and generation
// for one resolved query. Generation failures degrade to an in-band answer
// while the graded evidence stays visible; only retrieval transport errors
// propagate to the caller.
type Orchestrator struct {
	retriever        retrieval.Retriever
	grader           *grading.Grader
	generator        provider.Generator
	retrievalTimeout time.Duration
	logger           *log.Logger
}

func NewOrchestrator(r retrieval.Retriever, g *grading.Grader, gen provider.Generator, retrievalTimeout time.Duration, logger *log.Logger) *Orchestrator {
	if retrievalTimeout <= 0 {
		retrievalTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	return &Orchestrator{
		retriever:        r,
		grader:           g,
		generator:        gen,
		retrievalTimeout: retrievalTimeout,
		logger:           logger,
	}
}

// Answer runs the full pipeline for a resolved query:
//
//  1. retrieve the top-k passages (bounded timeout, single attempt)
//  2. short-circuit on empty retrieval without calling generation
//  3. grade every passage concurrently, preserving retrieval order
//  4. assemble the prompt and call generation exactly once
//
// Cancelling ctx aborts both outstanding remote calls.
func (o *Orchestrator) Answer(ctx context.Context, query string, k int) (string, []grading.Graded, error) {
	rctx, cancel := context.WithTimeout(ctx, o.retrievalTimeout)
	passages, err := o.retriever.Search(rctx, query, k)
	cancel()
	if err != nil {
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(passages) == 0 {
		o.logger.Printf("no passages for query (%d runes), returning degraded answer", len([]rune(query)))
		return NoContentAnswer, []grading.Graded{}, nil
	}

	evidences := make([]grading.Graded, len(passages))
	var wg sync.WaitGroup
	for i, p := range passages {
		wg.Add(1)
		go func(i int, p retrieval.Passage) {
			defer wg.Done()
			evidences[i] = o.grader.Grade(p)
		}(i, p)
	}
	wg.Wait()

	system, user := BuildPrompt(query, evidences)
	answer, err := o.generator.Complete(ctx, system, user)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			o.logger.Printf("generation skipped: %v", err)
			return "系统配置提示：" + err.Error(), evidences, nil
		}
		o.logger.Printf("generation failed: %v", err)
		return fmt.Sprintf("生成回答时发生错误：%v。您可以先查看下方的参考资料。", err), evidences, nil
	}
	return answer, evidences, nil
}
