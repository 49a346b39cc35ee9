package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// Frame は列名付きの表形式データ。値は全て文字列として保持する。
type Frame struct {
	columns []string
	rows    [][]string
}

// NewFrame は列名と行から Frame を作成する。全ての行は列数と同じ長さでなければならない。
func NewFrame(columns []string, rows [][]string) (*Frame, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewValueError("dataset.NewFrame",
				fmt.Sprintf("row %d has %d fields, expected %d", i, len(row), len(columns)))
		}
	}
	return &Frame{columns: append([]string(nil), columns...), rows: rows}, nil
}

// ReadCSV は先頭行をヘッダとしてCSV全体を読み込む
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.ReadCSV")
	}
	if err != nil {
		return nil, errors.Wrap(err, "dataset.ReadCSV: header")
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset.ReadCSV")
	}
	return NewFrame(header, records)
}

// Columns は列名を返す
func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

// NumRows は行数を返す
func (f *Frame) NumRows() int { return len(f.rows) }

// Tensor は (rows, columns) の文字列テンソルを返す
func (f *Frame) Tensor() *tensor.Tensor {
	data := make([]string, 0, len(f.rows)*len(f.columns))
	for _, row := range f.rows {
		data = append(data, row...)
	}
	return &tensor.Tensor{Shape: tensor.Shape{len(f.rows), len(f.columns)}, DType: tensor.String, Strings: data}
}

// FromFrame は Frame をバッチ化したデータセットにする。列名は ColumnNamer で取得できる。
func FromFrame(f *Frame, batchSize int) Dataset {
	ds := FromTensor(f.Tensor(), batchSize).(*memory)
	ds.columns = f.Columns()
	return ds
}

// CSVDataset はCSVファイルを毎回開き直してバッチ単位で読み出す遅延データセット。
// ファイル全体をメモリに載せない。
type CSVDataset struct {
	path      string
	batchSize int
	columns   []string
}

// OpenCSV はヘッダだけを読み、遅延データセットを返す
func OpenCSV(path string, batchSize int) (*CSVDataset, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.OpenCSV: %s", path)
	}
	defer file.Close()

	header, err := csv.NewReader(bufio.NewReader(file)).Read()
	if err == io.EOF {
		return nil, errors.Wrapf(errors.ErrEmptyData, "dataset.OpenCSV: %s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.OpenCSV: %s", path)
	}
	return &CSVDataset{path: path, batchSize: batchSize, columns: header}, nil
}

// Columns implements ColumnNamer.
func (c *CSVDataset) Columns() []string { return append([]string(nil), c.columns...) }

// Stream implements Dataset. A malformed record aborts the stream.
func (c *CSVDataset) Stream(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)

		file, err := os.Open(c.path)
		if err != nil {
			send(ctx, out, Batch{Err: errors.Wrapf(err, "dataset.CSVDataset: %s", c.path)})
			return
		}
		defer file.Close()

		reader := csv.NewReader(bufio.NewReader(file))
		reader.FieldsPerRecord = len(c.columns)
		if _, err := reader.Read(); err != nil {
			send(ctx, out, Batch{Err: errors.Wrapf(err, "dataset.CSVDataset: %s: header", c.path)})
			return
		}

		ncols := len(c.columns)
		buf := make([]string, 0, c.batchSize*ncols)
		flush := func() bool {
			rows := len(buf) / ncols
			t := &tensor.Tensor{Shape: tensor.Shape{rows, ncols}, DType: tensor.String, Strings: buf}
			buf = make([]string, 0, c.batchSize*ncols)
			return send(ctx, out, Batch{Data: t})
		}

		for {
			rec, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				send(ctx, out, Batch{Err: errors.Wrapf(err, "dataset.CSVDataset: %s", c.path)})
				return
			}
			buf = append(buf, rec...)
			if len(buf) == c.batchSize*ncols && !flush() {
				return
			}
		}
		if len(buf) > 0 {
			flush()
		}
	}()
	return out
}
