package tokenization

import (
	"strings"
	"testing"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab(t *testing.T) Vocabulary {
	t.Helper()
	lines := []string{PadToken, UnkToken, ClsToken, SepToken, MaskToken, "hello", "world", "un", "##aff", "##able", "cafe", ",", "!"}
	vocab, err := LoadVocabulary(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return vocab
}

func TestLoadVocabulary(t *testing.T) {
	vocab := testVocab(t)
	assert.Equal(t, int32(0), vocab[PadToken])
	assert.Equal(t, int32(1), vocab[UnkToken])
	assert.Equal(t, int32(5), vocab["hello"])

	_, err := LoadVocabulary(strings.NewReader(""))
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestWordPieceTokenizer_Tokenize(t *testing.T) {
	tok, err := NewWordPieceTokenizer(testVocab(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lower and punctuation", "Hello, World!", []string{"hello", ",", "world", "!"}},
		{"subwords", "unaffable", []string{"un", "##aff", "##able"}},
		{"accents stripped", "Café", []string{"cafe"}},
		{"unknown word", "xyz", []string{UnkToken}},
		{"whitespace only", " \t\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Tokenize(tt.text))
		})
	}
}

func TestWordPieceTokenizer_ConvertTokensToIDs(t *testing.T) {
	tok, err := NewWordPieceTokenizer(testVocab(t))
	require.NoError(t, err)

	ids, err := tok.ConvertTokensToIDs([]string{ClsToken, "hello", "missing", SepToken})
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 5, 1, 3}, ids)
}

func TestNewWordPieceTokenizer_Errors(t *testing.T) {
	_, err := NewWordPieceTokenizer(Vocabulary{"a": 0})
	assert.True(t, errors.IsConfigurationError(err))

	_, err = NewWordPieceTokenizer(Vocabulary{UnkToken: 0}, WithMaxCharsPerWord(0))
	assert.True(t, errors.IsConfigurationError(err))

	tok, err := NewWordPieceTokenizer(Vocabulary{UnkToken: 0, "Hello": 1}, WithCaseKept())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, tok.Tokenize("Hello"))
}
