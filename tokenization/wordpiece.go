package tokenization

import (
	"strings"
	"unicode"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultMaxCharsPerWord = 100

// WordPieceTokenizer is a BERT-compatible tokenizer: basic whitespace and
// punctuation splitting followed by greedy longest-match-first WordPiece.
type WordPieceTokenizer struct {
	vocab           Vocabulary
	lowerCase       bool
	maxCharsPerWord int
}

// WordPieceOption configures a WordPieceTokenizer.
type WordPieceOption func(*WordPieceTokenizer)

// WithCaseKept disables lower-casing and accent stripping.
func WithCaseKept() WordPieceOption {
	return func(t *WordPieceTokenizer) { t.lowerCase = false }
}

// WithMaxCharsPerWord sets the length above which a word becomes [UNK].
func WithMaxCharsPerWord(n int) WordPieceOption {
	return func(t *WordPieceTokenizer) { t.maxCharsPerWord = n }
}

// NewWordPieceTokenizer は語彙から WordPieceTokenizer を作成する。
// 語彙には [UNK] が含まれていなければならない。
func NewWordPieceTokenizer(vocab Vocabulary, opts ...WordPieceOption) (*WordPieceTokenizer, error) {
	if _, ok := vocab[UnkToken]; !ok {
		return nil, errors.NewConfigurationError("WordPieceTokenizer", "vocabulary", "vocabulary has no "+UnkToken+" token")
	}
	t := &WordPieceTokenizer{vocab: vocab, lowerCase: true, maxCharsPerWord: defaultMaxCharsPerWord}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxCharsPerWord <= 0 {
		return nil, errors.NewConfigurationErrorf("WordPieceTokenizer", "max_chars_per_word", "must be positive, got %d", t.maxCharsPerWord)
	}
	return t, nil
}

// Tokenize implements Tokenizer.
func (t *WordPieceTokenizer) Tokenize(text string) []string {
	var out []string
	for _, word := range t.basicTokenize(text) {
		out = append(out, t.wordPiece(word)...)
	}
	return out
}

// ConvertTokensToIDs implements Tokenizer. Tokens missing from the
// vocabulary map to the [UNK] id.
func (t *WordPieceTokenizer) ConvertTokensToIDs(tokens []string) ([]int32, error) {
	unk := t.vocab[UnkToken]
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		id, ok := t.vocab[tok]
		if !ok {
			id = unk
		}
		ids[i] = id
	}
	return ids, nil
}

func (t *WordPieceTokenizer) basicTokenize(text string) []string {
	text = cleanText(text)
	if t.lowerCase {
		text = stripAccents(strings.ToLower(text))
	}

	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isPunctuation(r) || isCJK(r):
			flush()
			words = append(words, string(r))
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

// wordPiece splits one word into the longest vocabulary pieces, left to right.
func (t *WordPieceTokenizer) wordPiece(word string) []string {
	chars := []rune(word)
	if len(chars) > t.maxCharsPerWord {
		return []string{UnkToken}
	}
	var pieces []string
	for start := 0; start < len(chars); {
		end := len(chars)
		found := ""
		for start < end {
			sub := string(chars[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				found = sub
				break
			}
			end--
		}
		if found == "" {
			return []string{UnkToken}
		}
		pieces = append(pieces, found)
		start = end
	}
	return pieces
}

func cleanText(text string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || r == unicode.ReplacementChar || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, text)
}

func stripAccents(text string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, text)
	if err != nil {
		return text
	}
	return out
}

func isPunctuation(r rune) bool {
	// ASCII symbols such as "$" and "^" count as punctuation for BERT.
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
