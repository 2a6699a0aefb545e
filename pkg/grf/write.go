package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Faultbox/wmhtool/pkg/encoding"
)

// File is one entry to be packed by Write.
type File struct {
	Name string // archive path, UTF-8
	Data []byte
}

// Write packs files into a version 0x200 GRF archive. Names are stored
// EUC-KR encoded with backslash separators, as the client expects.
func Write(w io.Writer, files []File) error {
	var body, table bytes.Buffer

	for _, f := range files {
		stored, err := deflate(f.Data)
		if err != nil {
			return fmt.Errorf("compressing %s: %w", f.Name, err)
		}
		if len(stored) >= len(f.Data) {
			stored = f.Data
		}

		offset := body.Len()
		body.Write(stored)

		name := bytes.ReplaceAll(encoding.UTF8ToEUCKR(f.Name), []byte("/"), []byte("\\"))
		table.Write(name)
		table.WriteByte(0)

		var rec [17]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(len(stored)))
		binary.LittleEndian.PutUint32(rec[4:], uint32(len(stored)))
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Data)))
		rec[12] = flagFile
		binary.LittleEndian.PutUint32(rec[13:], uint32(offset))
		table.Write(rec[:])
	}

	compressedTable, err := deflate(table.Bytes())
	if err != nil {
		return fmt.Errorf("compressing file table: %w", err)
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     version200,
	}
	copy(header.Magic[:], grfMagic)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(len(compressedTable)), uint32(table.Len())}); err != nil {
		return err
	}
	_, err = w.Write(compressedTable)
	return err
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
