package datasource

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// NewCSVSource 创建读取带表头CSV文件的RecordSource，表头在创建时读取
func NewCSVSource(in io.Reader) (*CSVSource, error) {
	reader := csv.NewReader(in)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("file is empty, header expected")
		}
		return nil, errors.Wrap(err, "error reading header")
	}

	m := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := m[h]; !ok {
			m[h] = i
		}
	}
	return &CSVSource{reader: reader, header: m, line: 1}, nil
}

type CSVSource struct {
	reader *csv.Reader
	header map[string]int
	line   int
}

var _ RecordSource = &CSVSource{}

func (c *CSVSource) Has(column string) bool {
	_, ok := c.header[strings.ToLower(column)]
	return ok
}

func (c *CSVSource) Load() (*Record, error) {
	values, err := c.reader.Read()
	if err != nil {
		return nil, err
	}
	c.line++
	return NewRecord(c.line, c.header, values), nil
}

// Fold 依次把每条记录交给fn，直到数据读取完毕
func Fold(source RecordSource, fn func(record *Record) error) error {
	var r *Record
	var err error
	for r, err = source.Load(); err == nil; r, err = source.Load() {
		if err = fn(r); err != nil {
			return err
		}
	}

	if err != io.EOF {
		return errors.Wrap(err, "error reading record")
	}
	return nil
}
