package outbound

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyTextProducesSingleEmptyChunk(t *testing.T) {
	assert.Equal(t, []string{""}, Chunk("", DefaultChunkCap))
}

func TestChunk_UnderCapReturnsWhole(t *testing.T) {
	assert.Equal(t, []string{"hello"}, Chunk("hello", DefaultChunkCap))
}

func TestChunk_DefaultCapSplitsAtCodePointBoundary(t *testing.T) {
	text := strings.Repeat("a", 5000)
	chunks := Chunk(text, DefaultChunkCap)

	require.Len(t, chunks, 2)
	assert.Equal(t, 4096, len([]rune(chunks[0])))
	assert.Equal(t, 904, len([]rune(chunks[1])))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunk_PrefersNewlineWithinWindow(t *testing.T) {
	chunks := Chunk("abcde\nfghijklmnop", 10)
	assert.Equal(t, []string{"abcde\n", "fghijklmno", "p"}, chunks)
}

func TestChunk_RoundTripProperty(t *testing.T) {
	texts := []string{
		"",
		"short",
		strings.Repeat("x\n", 3000),
		strings.Repeat("日本語", 2000),
		"\n\n\nline1\nline2",
	}

	for _, text := range texts {
		for _, cap := range []int{1, 5, 50, 4096} {
			chunks := Chunk(text, cap)
			assert.Equal(t, text, strings.Join(chunks, ""), "round-trip failed for cap=%d", cap)
			for _, c := range chunks {
				assert.LessOrEqual(t, len([]rune(c)), cap, "chunk exceeded cap=%d", cap)
			}
		}
	}
}

func TestChunk_NewlineOnlyAtPositionZeroIsIgnored(t *testing.T) {
	chunks := Chunk("\nabcdefghij", 5)
	// The only newline in the first window is at position 0, so the
	// window is emitted whole rather than as a zero-length chunk.
	assert.Equal(t, "\nabcd", chunks[0])
}
