package serialization

import (
	"encoding/json"
	"io"
	"os"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// Encode は v を整形済みJSONとして w に書き出す
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode document")
	}
	return nil
}

// Decode は r からJSONを読み込み v に格納する。未知のフィールドはエラー。
func Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode document")
	}
	return nil
}

// SaveFile は v をファイルに保存する
//
// 使用例:
//
//	err := serialization.SaveFile("pipeline.json", doc)
func SaveFile(filename string, v any) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close file %s", filename)
		}
	}()
	return Encode(file, v)
}

// LoadFile はファイルから v を読み込む
func LoadFile(filename string, v any) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer file.Close()
	return Decode(file, v)
}
