// Package tokenizer - Byte-Level BPE Tokenizer (GPT-2 Familie)
//
// Dieses Paket enthaelt:
// - Tokenizer: Encode/Decode auf Basis von vocab.json und merges.txt
// - Byte-zu-Unicode Mapping des GPT-2 Tokenizers
// - Pretokenizer-Split via regexp2 (negative Lookaheads)
package tokenizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
)

// Pretokenizer-Pattern des GPT-2 Tokenizers
// Benoetigt regexp2 wegen des negativen Lookaheads in \s+(?!\S)
const gpt2SplitPattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// EndOfText ist das Boundary-Token der GPT-2 Familie
// Wird beim Encoden als BOS vorangestellt
const EndOfText = "<|endoftext|>"

var ErrVocabulary = errors.New("invalid tokenizer vocabulary")

// Tokenizer fuehrt Byte-Level BPE gemaess GPT-2 aus
type Tokenizer struct {
	vocab    map[string]int32
	reverse  map[int32]string
	ranks    map[[2]string]int
	split    *regexp2.Regexp
	byteRune [256]rune
	runeByte map[rune]byte
	bos      int32
}

// New laedt vocab.json und merges.txt aus dem Model-Verzeichnis
func New(dir string) (*Tokenizer, error) {
	vocabData, err := os.ReadFile(filepath.Join(dir, "vocab.json"))
	if err != nil {
		return nil, err
	}

	var vocab map[string]int32
	if err := json.Unmarshal(vocabData, &vocab); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVocabulary, err)
	}

	mergesData, err := os.ReadFile(filepath.Join(dir, "merges.txt"))
	if err != nil {
		return nil, err
	}

	t := &Tokenizer{
		vocab:    vocab,
		reverse:  make(map[int32]string, len(vocab)),
		ranks:    make(map[[2]string]int),
		split:    regexp2.MustCompile(gpt2SplitPattern, regexp2.None),
		runeByte: make(map[rune]byte, 256),
	}

	for s, id := range vocab {
		t.reverse[id] = s
	}

	bos, ok := vocab[EndOfText]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrVocabulary, EndOfText)
	}
	t.bos = bos

	for i, line := range strings.Split(string(mergesData), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		left, right, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed merge at line %d", ErrVocabulary, i+1)
		}

		t.ranks[[2]string{left, right}] = len(t.ranks)
	}

	t.initByteTables()
	return t, nil
}

// initByteTables baut das GPT-2 Byte-zu-Unicode Mapping auf.
// Druckbare Bytes bleiben erhalten, alle anderen werden ab U+0100 verschoben
func (t *Tokenizer) initByteTables() {
	printable := func(b int) bool {
		return (b >= '!' && b <= '~') || (b >= 0xa1 && b <= 0xac) || (b >= 0xae && b <= 0xff)
	}

	n := 0
	for b := 0; b < 256; b++ {
		r := rune(b)
		if !printable(b) {
			r = rune(256 + n)
			n++
		}

		t.byteRune[b] = r
		t.runeByte[r] = byte(b)
	}
}

// BOS gibt die ID des Boundary-Tokens zurueck
func (t *Tokenizer) BOS() int32 {
	return t.bos
}

// Encode tokenisiert s in Token-IDs
// Mit addBOS wird das Boundary-Token vorangestellt (transformer_lens prepend_bos)
func (t *Tokenizer) Encode(s string, addBOS bool) ([]int32, error) {
	var ids []int32
	if addBOS {
		ids = append(ids, t.bos)
	}

	m, err := t.split.FindStringMatch(s)
	if err != nil {
		return nil, err
	}

	for m != nil {
		for _, part := range t.merge(t.mapBytes(m.String())) {
			id, ok := t.vocab[part]
			if !ok {
				return nil, fmt.Errorf("%w: no id for %q", ErrVocabulary, part)
			}
			ids = append(ids, id)
		}

		if m, err = t.split.FindNextMatch(m); err != nil {
			return nil, err
		}
	}

	return ids, nil
}

// mapBytes ueberfuehrt die UTF-8 Bytes eines Pretokens in Symbol-Strings
func (t *Tokenizer) mapBytes(s string) []string {
	symbols := make([]string, 0, len(s))
	for _, b := range []byte(s) {
		symbols = append(symbols, string(t.byteRune[b]))
	}

	return symbols
}

// merge wendet die BPE-Merges in Rang-Reihenfolge an
func (t *Tokenizer) merge(symbols []string) []string {
	for len(symbols) > 1 {
		best, bestRank := -1, -1
		for i := 0; i < len(symbols)-1; i++ {
			if rank, ok := t.ranks[[2]string{symbols[i], symbols[i+1]}]; ok {
				if bestRank < 0 || rank < bestRank {
					best, bestRank = i, rank
				}
			}
		}

		if best < 0 {
			break
		}

		merged := symbols[best] + symbols[best+1]
		symbols = append(symbols[:best+1], symbols[best+2:]...)
		symbols[best] = merged
	}

	return symbols
}

// Decode setzt Token-IDs in den urspruenglichen Text zurueck
func (t *Tokenizer) Decode(ids []int32) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(t.TokenString(id))
	}

	return sb.String()
}

// TokenString gibt die dekodierte Textform eines einzelnen Tokens zurueck
// Boundary- und Specials bleiben unveraendert
func (t *Tokenizer) TokenString(id int32) string {
	s, ok := t.reverse[id]
	if !ok {
		return ""
	}

	if s == EndOfText {
		return s
	}

	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := t.runeByte[r]; ok {
			buf = append(buf, b)
		}
	}

	return string(buf)
}
