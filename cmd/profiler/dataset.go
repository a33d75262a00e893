package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/homemap/source"
)

var mimes = []string{"text/plain", "image/png", "application/json", "application/pdf"}

// dataset is a synthetic home directory encoded into the three stores.
type dataset struct {
	paths []string
	dirs  []string

	mapData   []byte
	tagData   []byte
	indexData []byte
}

// makeDataset builds files spread across dirCount directories. Every tag
// record and preview record is padded to the same width so one offset
// dereferences both.
func makeDataset(files, dirCount, previewSize int, seed int64) (*dataset, error) {
	if files <= 0 {
		return nil, fmt.Errorf("files must be positive, got %d", files)
	}
	dirCount = max(dirCount, 1)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic profiling data

	ds := &dataset{}
	for d := range dirCount {
		ds.dirs = append(ds.dirs, fmt.Sprintf("dir%02d", d))
	}

	var mapBuf, tags, index bytes.Buffer
	preview := make([]byte, previewSize)
	for i := range files {
		p := fmt.Sprintf("%s/sub%02d/file%05d.txt", ds.dirs[i%dirCount], i%7, i)
		ds.paths = append(ds.paths, p)

		for j := range preview {
			preview[j] = byte('a' + rng.Intn(26))
		}

		off := uint32(tags.Len()) //nolint:gosec // bounded by files * record width
		tagRec := binary.LittleEndian.AppendUint64(nil, uint64(rng.Intn(1<<20))) //nolint:gosec // non-negative
		tagRec = append(tagRec, mimes[i%len(mimes)]...)
		tagRec = append(tagRec, 0)
		prevRec := binary.LittleEndian.AppendUint32(nil, uint32(len(preview))) //nolint:gosec // flag bounded
		prevRec = append(prevRec, preview...)

		width := max(len(tagRec), len(prevRec))
		tags.Write(tagRec)
		tags.Write(make([]byte, width-len(tagRec)))
		index.Write(prevRec)
		index.Write(make([]byte, width-len(prevRec)))

		mapBuf.Write(binary.LittleEndian.AppendUint32(nil, off))
		mapBuf.Write(binary.LittleEndian.AppendUint16(nil, uint16(len(p)))) //nolint:gosec // short generated names
		mapBuf.WriteString(p)
	}

	ds.mapData = mapBuf.Bytes()
	ds.tagData = tags.Bytes()
	ds.indexData = index.Bytes()
	return ds, nil
}

// write stores the dataset under dir. With partSize > 0 each store is split
// into zstd-compressed parts described by a part manifest.
func (ds *dataset) write(dir string, stores source.Stores, partSize int) error {
	for name, data := range map[string][]byte{
		stores.Map:   ds.mapData,
		stores.Tags:  ds.tagData,
		stores.Index: ds.indexData,
	} {
		var err error
		if partSize > 0 {
			err = writeParts(dir, name, data, partSize)
		} else {
			err = os.WriteFile(filepath.Join(dir, name), data, 0o644) //nolint:gosec // profiler output
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func writeParts(dir, name string, data []byte, partSize int) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()

	size := int64(len(data))
	m := source.PartManifest{
		File:         name,
		OriginalSize: &size,
		Compression:  source.CompressionZstd,
	}
	for i := 0; len(data) > 0; i++ {
		n := min(partSize, len(data))
		part := enc.EncodeAll(data[:n], nil)
		data = data[n:]

		partName := fmt.Sprintf("%s.part%03d", name, i)
		if err := os.WriteFile(filepath.Join(dir, partName), part, 0o644); err != nil { //nolint:gosec // profiler output
			return err
		}
		m.Parts = append(m.Parts, partName)
		m.Digests = append(m.Digests, digest.FromBytes(part))
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+source.ManifestSuffix), raw, 0o644) //nolint:gosec // profiler output
}
