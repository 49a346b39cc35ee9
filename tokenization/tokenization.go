// Package tokenization はテキスト入力をサブワードトークンとIDに変換する。
//
// Tokenizer は外部から注入される能力で、既定実装として BERT 互換の
// WordPieceTokenizer を提供する。
package tokenization

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// 特殊トークン
const (
	PadToken  = "[PAD]"
	UnkToken  = "[UNK]"
	ClsToken  = "[CLS]"
	SepToken  = "[SEP]"
	MaskToken = "[MASK]"
)

// Tokenizer splits text into tokens and maps tokens to vocabulary ids.
// Implementations must be safe for concurrent use; large batches are
// tokenized in parallel.
type Tokenizer interface {
	Tokenize(text string) []string
	ConvertTokensToIDs(tokens []string) ([]int32, error)
}

// Vocabulary はトークンからIDへの写像
type Vocabulary map[string]int32

// LoadVocabulary は1行1トークンの語彙ファイルを読み込む。行番号がIDになる。
func LoadVocabulary(r io.Reader) (Vocabulary, error) {
	vocab := make(Vocabulary)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var id int32
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			id++
			continue
		}
		if _, dup := vocab[token]; !dup {
			vocab[token] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "tokenization.LoadVocabulary")
	}
	if len(vocab) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "tokenization.LoadVocabulary")
	}
	return vocab, nil
}

// LoadVocabularyFile は語彙ファイルをパスから読み込む
func LoadVocabularyFile(path string) (Vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "tokenization.LoadVocabularyFile: %s", path)
	}
	defer file.Close()
	return LoadVocabulary(file)
}
