// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/MazzeLabs/go-mazze/util/daghash"
)

var byteOrder = binary.LittleEndian

// maxVarBytesLength is the maximum length a variable-length byte slice is
// allowed to declare, as a sanity limit against corrupted input.
const maxVarBytesLength = 1 << 24 // 16 MiB

// writeElement writes the little endian representation of element to w.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case *daghash.Hash:
		_, err := w.Write(e[:])
		return err
	case *daghash.TxID:
		_, err := w.Write(e[:])
		return err
	}
	return binary.Write(w, byteOrder, element)
}

// writeElements writes multiple items to w. It is equivalent to multiple
// calls to writeElement.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := writeElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// readElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *daghash.Hash:
		_, err := io.ReadFull(r, e[:])
		return err
	case *daghash.TxID:
		_, err := io.ReadFull(r, e[:])
		return err
	}
	return binary.Read(r, byteOrder, element)
}

// readElements reads multiple items from r. It is equivalent to multiple
// calls to readElement.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := readElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeVarBytes writes a length-prefixed byte slice to w.
func writeVarBytes(w io.Writer, b []byte) error {
	err := writeElement(w, uint32(len(b)))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// readVarBytes reads a length-prefixed byte slice from r.
func readVarBytes(r io.Reader) ([]byte, error) {
	var length uint32
	err := readElement(r, &length)
	if err != nil {
		return nil, err
	}
	if length > maxVarBytesLength {
		return nil, errors.Errorf("variable length byte slice declares "+
			"%d bytes which is larger than the maximum of %d", length,
			maxVarBytesLength)
	}
	b := make([]byte, length)
	_, err = io.ReadFull(r, b)
	if err != nil {
		return nil, err
	}
	return b, nil
}
