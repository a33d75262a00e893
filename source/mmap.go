package source

import (
	"errors"
	"os"
)

// Mapping is a read-only view of a whole file. On unix systems the bytes are
// memory-mapped; elsewhere the file is read into memory.
type Mapping struct {
	data  []byte
	unmap func([]byte) error
}

// MapFile maps the file at path read-only.
func MapFile(path string) (*Mapping, error) {
	f, err := os.Open(path) //nolint:gosec // caller-chosen store path
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mapOpen(f)
}

// mapOpen maps an open file. f may be closed once mapOpen returns.
func mapOpen(f *os.File) (*Mapping, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size < 0 {
		return nil, errors.New("mmap: file size is negative")
	}
	if size == 0 {
		return &Mapping{}, nil
	}
	if int64(int(size)) != size {
		return nil, errors.New("mmap: file too large to map")
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Close releases the mapping. Closing twice is a no-op.
func (m *Mapping) Close() error {
	if m == nil || m.data == nil {
		return nil
	}
	var err error
	if m.unmap != nil {
		err = m.unmap(m.data)
	}
	m.data = nil
	m.unmap = nil
	return err
}
