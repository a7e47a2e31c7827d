// Package tables holds the CSV schemas exchanged between pipeline stages and
// the helpers that read and write them.
package tables

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/ioutil"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// Read decodes a comma separated table with a header row into out, which
// must be a pointer to a slice of structs with csv tags. Inputs may be
// compressed. A table missing any of the required columns yields a
// *fishnet.MalformedInputError; an empty input (no bytes, or a header
// only) leaves out empty and returns nil.
func Read(source string, r io.Reader, out interface{}, required ...string) error {
	dr, err := fishnet.MaybeDecompress(r)
	if err != nil {
		return &fishnet.MalformedInputError{Source: source, Err: err}
	}

	b, err := ioutil.ReadAll(dr)
	if err != nil {
		return pfx.Err(err)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	header, err := Header(b)
	if err != nil {
		return &fishnet.MalformedInputError{Source: source, Err: err}
	}

	if err := fishnet.RequireColumns(source, header, required...); err != nil {
		return err
	}

	if err := gocsv.UnmarshalBytes(b, out); err != nil {
		return &fishnet.MalformedInputError{Source: source, Err: err}
	}

	return nil
}

// Header returns the first row of a comma separated table.
func Header(b []byte) ([]string, error) {
	cr := csv.NewReader(bytes.NewReader(b))
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}

	return header, nil
}

// Write encodes rows, a slice of structs with csv tags, with a header row.
// The header is written even when rows is empty.
func Write(w io.Writer, rows interface{}) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return pfx.Err(err)
	}

	return nil
}
