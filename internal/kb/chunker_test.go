package kb

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextEmpty(t *testing.T) {
	t.Parallel()
	if got := ChunkText("", 500, 50); got != nil {
		t.Fatalf("empty input should produce no chunks, got %v", got)
	}
	if got := ChunkText("   \n\t ", 500, 50); got != nil {
		t.Fatalf("blank input should produce no chunks, got %v", got)
	}
}

func TestChunkTextSingleChunk(t *testing.T) {
	t.Parallel()
	got := ChunkText("高血压患者应减少钠盐摄入。每日食盐不超过5克。", 500, 50)
	if len(got) != 1 {
		t.Fatalf("short text should fit one chunk, got %d", len(got))
	}
	if !strings.Contains(got[0], "钠盐摄入") || !strings.Contains(got[0], "不超过5克") {
		t.Fatalf("chunk lost content: %q", got[0])
	}
}

func TestChunkTextSplitAndOverlap(t *testing.T) {
	t.Parallel()
	got := ChunkText("aaaa.bbbb.cccc", 9, 2)
	want := []string{"aaaa bbbb", "bb cccc"}
	if len(got) != len(want) {
		t.Fatalf("chunks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkTextHardCutOversizedAtom(t *testing.T) {
	t.Parallel()
	got := ChunkText(strings.Repeat("x", 12), 5, 0)
	want := []string{"xxxxx", "xxxxx", "xx"}
	if len(got) != len(want) {
		t.Fatalf("chunks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkTextRespectsRuneBudget(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("头痛通常由紧张或睡眠不足引起。")
	}
	size, overlap := 100, 10
	for _, c := range ChunkText(sb.String(), size, overlap) {
		if n := utf8.RuneCountInString(c); n > size+overlap+1 {
			t.Fatalf("chunk of %d runes exceeds budget: %q", n, c)
		}
	}
}

func TestChunkIDStable(t *testing.T) {
	t.Parallel()
	a := ChunkID("https://www.who.int/a", "指南", 0)
	b := ChunkID("https://www.who.int/a", "指南", 0)
	if a != b {
		t.Fatalf("same document must yield the same id: %s vs %s", a, b)
	}
	if !strings.HasSuffix(a, "#0") {
		t.Fatalf("id should carry the chunk index suffix: %s", a)
	}
	if ChunkID("https://www.who.int/a", "指南", 1) == a {
		t.Fatalf("different indexes must yield different ids")
	}
	if ChunkID("https://www.who.int/b", "指南", 0) == a {
		t.Fatalf("different documents must yield different ids")
	}
}
