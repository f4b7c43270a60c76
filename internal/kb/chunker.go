package kb

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Separators for coarse splitting, strongest first. Chinese sentence
// punctuation ranks above latin so mixed-language passages break on the
// dominant sentence boundary.
var chunkSeparators = []string{"\n\n", "\n", "。", "！", "？", ".", "!", "?", " "}

// ChunkText splits text into pieces of roughly size runes with the tail of
// each piece repeated as an overlap prefix on the next. Oversized atoms with
// no separator are hard-cut.
func ChunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = 500
	}

	atoms := splitBySeparators(text, chunkSeparators)

	var chunks []string
	var buf []string
	bufLen := 0
	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(strings.Join(buf, " ")))
		buf = nil
		bufLen = 0
	}

	for _, atom := range atoms {
		atomLen := runeLen(atom)
		sep := 0
		if bufLen > 0 {
			sep = 1
		}
		if bufLen+atomLen+sep <= size {
			buf = append(buf, atom)
			bufLen += atomLen + sep
			continue
		}
		flush()
		if atomLen <= size {
			buf = append(buf, atom)
			bufLen = atomLen
			continue
		}
		runes := []rune(atom)
		for start := 0; start < len(runes); start += size {
			end := start + size
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, strings.TrimSpace(string(runes[start:end])))
		}
	}
	flush()

	if overlap <= 0 || len(chunks) <= 1 {
		return compact(chunks)
	}

	out := []string{chunks[0]}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(out[len(out)-1])
		prefix := prev
		if len(prev) > overlap {
			prefix = prev[len(prev)-overlap:]
		}
		out = append(out, strings.TrimSpace(string(prefix)+" "+chunks[i]))
	}
	return compact(out)
}

// ChunkID derives the stable id for the idx-th chunk of a document:
// sha1(sourceURL + "||" + title) + "#" + idx. Re-ingesting the same
// document yields the same ids, so index updates are idempotent.
func ChunkID(sourceURL, title string, idx int) string {
	sum := sha1.Sum([]byte(sourceURL + "||" + title))
	return fmt.Sprintf("%s#%d", hex.EncodeToString(sum[:]), idx)
}

func splitBySeparators(text string, seps []string) []string {
	parts := []string{text}
	for _, sep := range seps {
		var next []string
		for _, p := range parts {
			if !strings.Contains(p, sep) {
				if p != "" {
					next = append(next, p)
				}
				continue
			}
			for _, piece := range strings.Split(p, sep) {
				if piece != "" {
					next = append(next, piece)
				}
			}
		}
		parts = next
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

func compact(in []string) []string {
	out := in[:0]
	for _, c := range in {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
