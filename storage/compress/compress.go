// Package compress pools minlz readers and writers for block payloads.
package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/minio/minlz"
)

type Pool struct {
	read  sync.Pool
	write sync.Pool
}

func (p *Pool) GetReader() *minlz.Reader {
	v := p.read.Get()
	if v != nil {
		return v.(*minlz.Reader)
	}
	return minlz.NewReader(nil)
}

func (p *Pool) PutReader(r *minlz.Reader) {
	r.Reset(nil)
	p.read.Put(r)
}

func (p *Pool) GetWriter() *minlz.Writer {
	v := p.write.Get()
	if v != nil {
		return v.(*minlz.Writer)
	}
	return minlz.NewWriter(nil)
}

func (p *Pool) PutWriter(w *minlz.Writer) {
	w.Reset(nil)
	p.write.Put(w)
}

// Encode appends the compressed form of src to dst.
func (p *Pool) Encode(dst *bytes.Buffer, src []byte) error {
	w := p.GetWriter()
	defer p.PutWriter(w)
	w.Reset(dst)
	if _, err := w.Write(src); err != nil {
		return err
	}
	return w.Close()
}

// Decode returns the decompressed form of src.
func (p *Pool) Decode(src []byte) ([]byte, error) {
	r := p.GetReader()
	defer p.PutReader(r)
	r.Reset(bytes.NewReader(src))
	return io.ReadAll(r)
}
