package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"healthqa/internal/grading"
	"healthqa/internal/retrieval"
	"healthqa/provider"
)

type stubRetriever struct {
	passages []retrieval.Passage
	err      error
	calls    int
}

func (s *stubRetriever) Search(_ context.Context, _ string, _ int) ([]retrieval.Passage, error) {
	s.calls++
	return s.passages, s.err
}

type stubGenerator struct {
	answer string
	err    error
	calls  int
	system string
	user   string
}

func (s *stubGenerator) Complete(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.system = system
	s.user = user
	return s.answer, s.err
}

func testGrader() *grading.Grader {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return grading.NewGrader(grading.DefaultPolicy(), func() time.Time { return fixed })
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func somePassages() []retrieval.Passage {
	return []retrieval.Passage{
		{
			Content:         "高血压患者应减少钠盐摄入。",
			SourceURL:       "https://www.who.int/hypertension",
			SourceName:      "世界卫生组织",
			PublicationDate: "2024-01-15",
			Title:           "高血压指南",
		},
		{
			Content:    "有网友分享了自己的控压经验。",
			SourceURL:  "https://tieba.baidu.com/p/1",
			SourceName: "百度贴吧",
		},
	}
}

func TestAnswerHappyPath(t *testing.T) {
	t.Parallel()
	ret := &stubRetriever{passages: somePassages()}
	gen := &stubGenerator{answer: "建议低盐饮食并规律监测血压。"}
	o := NewOrchestrator(ret, testGrader(), gen, time.Second, quietLogger())

	answer, evidences, err := o.Answer(context.Background(), "高血压饮食建议", 5)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "建议低盐饮食并规律监测血压。" {
		t.Fatalf("answer = %q", answer)
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times, want 1", gen.calls)
	}
	if len(evidences) != 2 {
		t.Fatalf("evidence count = %d, want 2", len(evidences))
	}
	// Grading never reorders retrieval results.
	if evidences[0].Passage.SourceURL != "https://www.who.int/hypertension" ||
		evidences[1].Passage.SourceURL != "https://tieba.baidu.com/p/1" {
		t.Fatalf("evidence order does not match retrieval order: %+v", evidences)
	}
	if evidences[0].Score <= evidences[1].Score {
		t.Fatalf("authoritative source should outscore forum post")
	}
}

func TestAnswerEmptyRetrievalSkipsGeneration(t *testing.T) {
	t.Parallel()
	ret := &stubRetriever{}
	gen := &stubGenerator{answer: "should never be used"}
	o := NewOrchestrator(ret, testGrader(), gen, time.Second, quietLogger())

	answer, evidences, err := o.Answer(context.Background(), "冷门问题", 5)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != NoContentAnswer {
		t.Fatalf("answer = %q, want canned no-content message", answer)
	}
	if evidences == nil || len(evidences) != 0 {
		t.Fatalf("evidences = %v, want empty non-nil slice", evidences)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called on empty retrieval, got %d calls", gen.calls)
	}
}

func TestAnswerRetrievalErrorPropagates(t *testing.T) {
	t.Parallel()
	ret := &stubRetriever{err: errors.New("index unavailable")}
	gen := &stubGenerator{}
	o := NewOrchestrator(ret, testGrader(), gen, time.Second, quietLogger())

	_, _, err := o.Answer(context.Background(), "q", 5)
	if err == nil || !strings.Contains(err.Error(), "index unavailable") {
		t.Fatalf("err = %v, want wrapped retrieval error", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator called after retrieval failure")
	}
}

func TestAnswerUnconfiguredProviderDegrades(t *testing.T) {
	t.Parallel()
	ret := &stubRetriever{passages: somePassages()}
	gen := &stubGenerator{err: provider.ErrNotConfigured}
	o := NewOrchestrator(ret, testGrader(), gen, time.Second, quietLogger())

	answer, evidences, err := o.Answer(context.Background(), "高血压饮食建议", 5)
	if err != nil {
		t.Fatalf("missing credentials must not surface as a pipeline error: %v", err)
	}
	if !strings.HasPrefix(answer, "系统配置提示：") {
		t.Fatalf("answer = %q, want configuration hint prefix", answer)
	}
	if len(evidences) != 2 {
		t.Fatalf("graded evidence must survive generation failure, got %d", len(evidences))
	}
}

func TestAnswerTransportErrorDegrades(t *testing.T) {
	t.Parallel()
	ret := &stubRetriever{passages: somePassages()}
	gen := &stubGenerator{err: errors.New("api status 500")}
	o := NewOrchestrator(ret, testGrader(), gen, time.Second, quietLogger())

	answer, evidences, err := o.Answer(context.Background(), "高血压饮食建议", 5)
	if err != nil {
		t.Fatalf("generation failure must not surface as a pipeline error: %v", err)
	}
	if !strings.Contains(answer, "生成回答时发生错误") || !strings.Contains(answer, "api status 500") {
		t.Fatalf("answer = %q, want in-band error message", answer)
	}
	if len(evidences) != 2 {
		t.Fatalf("graded evidence must survive generation failure, got %d", len(evidences))
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()
	g := testGrader()
	evidences := []grading.Graded{
		g.Grade(somePassages()[0]),
		g.Grade(somePassages()[1]),
	}

	system, user := BuildPrompt("高血压饮食建议", evidences)
	if !strings.Contains(system, "不得编造信息") || !strings.Contains(system, "不可推荐具体处方药") {
		t.Fatalf("system prompt missing grounding rules")
	}
	if !strings.Contains(user, "## 用户问题\n高血压饮食建议") {
		t.Fatalf("user prompt missing query section:\n%s", user)
	}
	if !strings.Contains(user, "[1] [证据等级: Level") || !strings.Contains(user, "[2] [证据等级: Level") {
		t.Fatalf("passages not numbered in order:\n%s", user)
	}
	if !strings.Contains(user, "来源: 世界卫生组织") {
		t.Fatalf("source name missing from evidence block:\n%s", user)
	}
	if strings.Index(user, "世界卫生组织") > strings.Index(user, "百度贴吧") {
		t.Fatalf("evidence order changed in prompt")
	}
}
