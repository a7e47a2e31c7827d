package tables

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/ioutil"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/pfx"
)

// Records is a table whose columns are not known ahead of time.
type Records struct {
	Header []string
	Rows   [][]string
}

// Column returns the position of name in the header, or -1.
func (r Records) Column(name string) int {
	for i, col := range r.Header {
		if col == name {
			return i
		}
	}
	return -1
}

// ReadRecords reads a comma separated table, header first. The input may be
// compressed. An empty input yields an empty Records.
func ReadRecords(source string, r io.Reader, required ...string) (Records, error) {
	dr, err := fishnet.MaybeDecompress(r)
	if err != nil {
		return Records{}, &fishnet.MalformedInputError{Source: source, Err: err}
	}

	b, err := ioutil.ReadAll(dr)
	if err != nil {
		return Records{}, pfx.Err(err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		if len(required) > 0 {
			return Records{}, &fishnet.MalformedInputError{Source: source, Missing: required}
		}
		return Records{}, nil
	}

	all, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return Records{}, &fishnet.MalformedInputError{Source: source, Err: err}
	}

	out := Records{Header: all[0], Rows: all[1:]}
	if err := fishnet.RequireColumns(source, out.Header, required...); err != nil {
		return Records{}, err
	}

	return out, nil
}

// WriteRecords writes the header and rows.
func WriteRecords(w io.Writer, recs Records) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recs.Header); err != nil {
		return pfx.Err(err)
	}
	if err := cw.WriteAll(recs.Rows); err != nil {
		return pfx.Err(err)
	}
	return nil
}
