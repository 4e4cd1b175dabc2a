package utils

import "io"

// WriteCounter 统计写入输出文件的字节数
type WriteCounter struct {
	Writer io.Writer
	Count  int64
}

func (w *WriteCounter) Write(p []byte) (n int, err error) {
	n, err = w.Writer.Write(p)
	w.Count += int64(n)
	return
}
