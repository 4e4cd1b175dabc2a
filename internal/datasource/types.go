package datasource

import (
	"fmt"
	"strconv"
	"strings"
)

type RecordSource interface {
	// 读取一条记录。若读取完毕，则error设置为io.EOF。error为其他时表示读取出错
	Load() (*Record, error)
}

// Record 以列名访问的一行数据，列名不区分大小写
type Record struct {
	// 记录序号，表头为第1条
	Line   int
	header map[string]int
	values []string
}

type ColumnError struct {
	Column string
	Value  string
	Err    error
}

func (e *ColumnError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("column %q is missing", e.Column)
	}
	return fmt.Sprintf("column %q has invalid value %q: %v", e.Column, e.Value, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

func NewRecord(line int, header map[string]int, values []string) *Record {
	return &Record{Line: line, header: header, values: values}
}

func (r *Record) Has(column string) bool {
	_, ok := r.header[strings.ToLower(column)]
	return ok
}

func (r *Record) String(column string) (string, error) {
	idx, ok := r.header[strings.ToLower(column)]
	if !ok || idx >= len(r.values) {
		return "", &ColumnError{Column: column}
	}
	return strings.TrimSpace(r.values[idx]), nil
}

func (r *Record) Int(column string) (int, error) {
	s, err := r.String(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// 部分工具把整数写成 4.0
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, &ColumnError{Column: column, Value: s, Err: err}
		}
		v = int(f)
	}
	return v, nil
}

// Int64OrZero 空值视为0
func (r *Record) Int64OrZero(column string) (int64, error) {
	s, err := r.String(column)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ColumnError{Column: column, Value: s, Err: err}
	}
	return v, nil
}

func (r *Record) Float(column string) (float64, error) {
	s, err := r.String(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ColumnError{Column: column, Value: s, Err: err}
	}
	return v, nil
}

// FloatOrZero 空值视为0
func (r *Record) FloatOrZero(column string) (float64, error) {
	s, err := r.String(column)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	return r.Float(column)
}
