package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Output names produced by WordPiece
const (
	InputIDs      = "input_ids"
	AttentionMask = "attention_mask"
	TokenTypeIDs  = "token_type_ids"
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	padToken = "[PAD]"
	unkToken = "[UNK]"

	continuationPrefix = "##"
	maxWordRunes       = 100
)

// WordPiece is a BERT-style tokenizer over a fixed vocabulary
type WordPiece struct {
	vocab     map[string]int64
	lowercase bool

	cls, sep, pad, unk int64
}

// LoadWordPiece reads a vocabulary file with one token per line; the line number is the token id
func LoadWordPiece(path string, lowercase bool) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary %s: %w", path, err)
	}
	defer f.Close()

	vocab, err := ReadVocab(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	return NewWordPiece(vocab, lowercase)
}

// ReadVocab parses a vocabulary; duplicate tokens keep their first id
func ReadVocab(r io.Reader) (map[string]int64, error) {
	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(r)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r")
		if _, ok := vocab[token]; !ok && token != "" {
			vocab[token] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vocab, nil
}

// NewWordPiece creates a tokenizer; the vocabulary must contain [CLS], [SEP], [PAD] and [UNK]
func NewWordPiece(vocab map[string]int64, lowercase bool) (*WordPiece, error) {
	wp := &WordPiece{vocab: vocab, lowercase: lowercase}
	for token, dst := range map[string]*int64{clsToken: &wp.cls, sepToken: &wp.sep, padToken: &wp.pad, unkToken: &wp.unk} {
		id, ok := vocab[token]
		if !ok {
			return nil, fmt.Errorf("vocabulary has no %s token", token)
		}
		*dst = id
	}
	return wp, nil
}

// Encode implements Tokenizer. One text gives [CLS] a [SEP], a pair gives [CLS] a [SEP] b [SEP].
func (w *WordPiece) Encode(texts []string, params Params) (map[string][]int64, error) {
	if len(texts) == 0 || len(texts) > 2 {
		return nil, fmt.Errorf("expected one text or a text pair, got %d texts", len(texts))
	}

	segments := make([][]int64, len(texts))
	for i, text := range texts {
		segments[i] = w.tokenize(text)
	}

	specials := len(texts) + 1
	if params.MaxLength > 0 {
		if params.MaxLength < specials {
			return nil, fmt.Errorf("max length %d leaves no room for special tokens", params.MaxLength)
		}
		budget := params.MaxLength - specials
		if params.Truncation {
			truncateLongestFirst(segments, budget)
		} else if total(segments) > budget {
			return nil, fmt.Errorf("sequence of %d tokens exceeds max length %d", total(segments)+specials, params.MaxLength)
		}
	}

	ids := []int64{w.cls}
	typeIDs := []int64{0}
	for i, segment := range segments {
		ids = append(ids, segment...)
		ids = append(ids, w.sep)
		for range segment {
			typeIDs = append(typeIDs, int64(i))
		}
		typeIDs = append(typeIDs, int64(i))
	}

	mask := make([]int64, len(ids))
	for i := range mask {
		mask[i] = 1
	}

	if params.PadToMaxLength {
		for len(ids) < params.MaxLength {
			ids = append(ids, w.pad)
			typeIDs = append(typeIDs, 0)
			mask = append(mask, 0)
		}
	}

	return map[string][]int64{
		InputIDs:      ids,
		AttentionMask: mask,
		TokenTypeIDs:  typeIDs,
	}, nil
}

func (w *WordPiece) tokenize(text string) []int64 {
	var ids []int64
	for _, word := range w.basicTokenize(text) {
		ids = append(ids, w.wordPiece(word)...)
	}
	return ids
}

// basicTokenize cleans text and splits it on whitespace, punctuation and CJK characters
func (w *WordPiece) basicTokenize(text string) []string {
	if w.lowercase {
		text = stripAccents(strings.ToLower(text))
	}

	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || (unicode.IsControl(r) && !unicode.IsSpace(r)):
			continue
		case unicode.IsSpace(r):
			flush()
		case isPunctuation(r) || unicode.Is(unicode.Han, r):
			flush()
			words = append(words, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// wordPiece splits a word greedily into the longest vocabulary pieces
func (w *WordPiece) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []int64{w.unk}
	}

	var pieces []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := false
		var id int64
		for ; end > start; end-- {
			piece := string(runes[start:end])
			if start > 0 {
				piece = continuationPrefix + piece
			}
			if id, found = w.vocab[piece]; found {
				break
			}
		}
		if !found {
			return []int64{w.unk}
		}
		pieces = append(pieces, id)
		start = end
	}
	return pieces
}

func stripAccents(text string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(text) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func truncateLongestFirst(segments [][]int64, budget int) {
	for total(segments) > budget {
		longest := 0
		for i := range segments {
			if len(segments[i]) > len(segments[longest]) {
				longest = i
			}
		}
		segments[longest] = segments[longest][:len(segments[longest])-1]
	}
}

func total(segments [][]int64) int {
	n := 0
	for _, s := range segments {
		n += len(s)
	}
	return n
}
