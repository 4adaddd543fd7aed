// Package anvil exports generated chunks as region files.
package anvil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

const (
	sectorSize      = 4096
	headerSectors   = 2 // location table + timestamp table
	compressionZlib = 2
)

// RegionPath returns the file holding region (rx, rz) in dir.
func RegionPath(dir string, rx, rz int) string {
	return filepath.Join(dir, fmt.Sprintf("r.%d.%d.mca", rx, rz))
}

// WriteRegions encodes chunks and writes them grouped by region. It returns
// the number of region files written.
func WriteRegions(dir string, chunks []*gen.ChunkData) (int, error) {
	type key struct{ x, z int }
	regions := make(map[key]map[pos.Chunk][]byte)
	for _, c := range chunks {
		data, err := EncodeChunk(c)
		if err != nil {
			return 0, fmt.Errorf("encode chunk %v: %w", c.Pos, err)
		}
		k := key{c.Pos.X >> 5, c.Pos.Z >> 5}
		if regions[k] == nil {
			regions[k] = make(map[pos.Chunk][]byte)
		}
		regions[k][c.Pos] = data
	}
	for k, m := range regions {
		if err := SaveRegion(dir, k.x, k.z, m); err != nil {
			return 0, err
		}
	}
	return len(regions), nil
}

// SaveRegion writes all provided chunks to a .mca region file.
// chunks maps chunk positions to their uncompressed NBT data.
func SaveRegion(dir string, rx, rz int, chunks map[pos.Chunk][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create region dir: %w", err)
	}

	// Compress all chunks with zlib.
	type chunkEntry struct {
		index      int
		compressed []byte
	}
	entries := make([]chunkEntry, 0, len(chunks))

	for cp, data := range chunks {
		if cp.X>>5 != rx || cp.Z>>5 != rz {
			return fmt.Errorf("chunk %v is not in region %d,%d", cp, rx, rz)
		}
		var cbuf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&cbuf, zlib.DefaultCompression)
		if err != nil {
			return fmt.Errorf("create zlib writer: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compress chunk (%d,%d): %w", cp.X, cp.Z, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zlib writer: %w", err)
		}

		entries = append(entries, chunkEntry{index: chunkIndex(cp), compressed: cbuf.Bytes()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	locations := make([]byte, sectorSize)
	timestamps := make([]byte, sectorSize)
	now := uint32(time.Now().Unix())

	// Each chunk's data: 4 bytes length + 1 byte compression type + compressed data,
	// padded to sector boundary.
	var dataBuf bytes.Buffer
	currentSector := uint32(headerSectors)

	for i := range entries {
		e := &entries[i]

		payloadLen := uint32(len(e.compressed)) + 1 // +1 for compression byte
		totalLen := 4 + payloadLen                  // 4 for the length field itself
		sectorCount := (totalLen + sectorSize - 1) / sectorSize
		if sectorCount > 0xFF {
			return fmt.Errorf("chunk %d needs %d sectors", e.index, sectorCount)
		}

		// Location entry: (offset << 8) | sectorCount
		off := e.index * 4
		binary.BigEndian.PutUint32(locations[off:off+4], (currentSector<<8)|sectorCount)
		binary.BigEndian.PutUint32(timestamps[off:off+4], now)

		var header [5]byte
		binary.BigEndian.PutUint32(header[0:4], payloadLen)
		header[4] = compressionZlib
		dataBuf.Write(header[:])
		dataBuf.Write(e.compressed)

		if pad := int(sectorCount)*sectorSize - int(totalLen); pad > 0 {
			dataBuf.Write(make([]byte, pad))
		}

		currentSector += sectorCount
	}

	// Write the file atomically.
	path := RegionPath(dir, rx, rz)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp region file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.Write(locations); err != nil {
		return fmt.Errorf("write locations: %w", err)
	}
	if _, err := f.Write(timestamps); err != nil {
		return fmt.Errorf("write timestamps: %w", err)
	}
	if _, err := f.Write(dataBuf.Bytes()); err != nil {
		return fmt.Errorf("write chunk data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close region file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename region file: %w", err)
	}

	return nil
}

// ReadChunk returns the uncompressed NBT of cp from the region files in
// dir, or nil if the region has no such chunk.
func ReadChunk(dir string, cp pos.Chunk) ([]byte, error) {
	f, err := os.Open(RegionPath(dir, cp.X>>5, cp.Z>>5))
	if err != nil {
		return nil, fmt.Errorf("open region: %w", err)
	}
	defer f.Close()

	var loc [4]byte
	if _, err := f.ReadAt(loc[:], int64(chunkIndex(cp)*4)); err != nil {
		return nil, fmt.Errorf("read location: %w", err)
	}
	v := binary.BigEndian.Uint32(loc[:])
	if v == 0 {
		return nil, nil
	}
	sector := int64(v >> 8)

	var header [5]byte
	if _, err := f.ReadAt(header[:], sector*sectorSize); err != nil {
		return nil, fmt.Errorf("read chunk header: %w", err)
	}
	n := binary.BigEndian.Uint32(header[0:4])
	if header[4] != compressionZlib {
		return nil, fmt.Errorf("chunk %v: unsupported compression %d", cp, header[4])
	}
	zr, err := zlib.NewReader(io.NewSectionReader(f, sector*sectorSize+5, int64(n)-1))
	if err != nil {
		return nil, fmt.Errorf("chunk %v: %w", cp, err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func chunkIndex(cp pos.Chunk) int { return (cp.X & 31) + (cp.Z&31)*32 }
