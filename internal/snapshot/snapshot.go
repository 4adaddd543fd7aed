// Package snapshot stores generated areas as zstd compressed gob streams so
// two runs can be compared block by block.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
)

// Version is the current snapshot layout.
const Version = 1

// Header identifies what a snapshot was generated from.
type Header struct {
	Version   int    `json:"version"`
	Dimension string `json:"dimension"`
	Seed      int64  `json:"seed"`
	Chunks    int    `json:"chunks"`
}

// Chunk is one column. Blocks and Biomes index into the snapshot palettes,
// section by section, in the generator's index order.
type Chunk struct {
	X, Z    int
	MinY    int
	Blocks  [][]uint16
	Biomes  [][]uint16
	Heights map[string][]int32
}

// Snapshot is a generated area with its state and biome palettes.
type Snapshot struct {
	Header       Header
	BlockPalette []string
	BiomePalette []string
	Chunks       []Chunk

	blockIdx map[string]uint16
	biomeIdx map[string]uint16
}

// FromChunks captures chunks in x, z order. States are recorded by name so
// snapshots stay comparable across registry changes.
func FromChunks(dimension string, seed int64, chunks []*gen.ChunkData) *Snapshot {
	s := &Snapshot{
		Header:   Header{Version: Version, Dimension: dimension, Seed: seed, Chunks: len(chunks)},
		blockIdx: make(map[string]uint16),
		biomeIdx: make(map[string]uint16),
	}
	sorted := append([]*gen.ChunkData(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Pos, sorted[j].Pos
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	for _, c := range sorted {
		s.Chunks = append(s.Chunks, s.capture(c))
	}
	return s
}

func (s *Snapshot) capture(c *gen.ChunkData) Chunk {
	reg, biomes := c.Registry(), c.Biomes()
	out := Chunk{X: c.Pos.X, Z: c.Pos.Z, MinY: c.MinY, Heights: make(map[string][]int32)}
	for _, sec := range c.Sections {
		blocks := make([]uint16, len(sec.Blocks))
		for i, id := range sec.Blocks {
			blocks[i] = intern(&s.BlockPalette, s.blockIdx, reg.State(id).String())
		}
		bs := make([]uint16, len(sec.Biomes))
		for i, id := range sec.Biomes {
			bs[i] = intern(&s.BiomePalette, s.biomeIdx, biomes.ByID(int(id)).Name)
		}
		out.Blocks = append(out.Blocks, blocks)
		out.Biomes = append(out.Biomes, bs)
	}
	for _, k := range heightmap.Kinds {
		out.Heights[k.String()] = append([]int32(nil), c.Heights.Raw(k)...)
	}
	return out
}

func intern(palette *[]string, index map[string]uint16, v string) uint16 {
	if i, ok := index[v]; ok {
		return i
	}
	i := uint16(len(*palette))
	index[v] = i
	*palette = append(*palette, v)
	return i
}

// Write encodes s as a JSON header line followed by the gob body, all
// zstd compressed.
func Write(w io.Writer, s *Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(s.Header)
	if err != nil {
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(s); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}

	var s Snapshot
	if err := gob.NewDecoder(br).Decode(&s); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return &s, nil
}

// Save writes s to path, creating parent directories.
func Save(path string, s *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return f.Close()
}

// Load reads the snapshot at path.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return s, nil
}

// Diff lists up to limit differences between two snapshots. A limit of 0
// or less reports every difference.
func Diff(a, b *Snapshot, limit int) []string {
	var out []string
	add := func(format string, args ...any) bool {
		out = append(out, fmt.Sprintf(format, args...))
		return limit > 0 && len(out) >= limit
	}
	if a.Header != b.Header {
		if add("header %+v != %+v", a.Header, b.Header) {
			return out
		}
	}
	if len(a.Chunks) != len(b.Chunks) {
		add("%d chunks != %d chunks", len(a.Chunks), len(b.Chunks))
		return out
	}
	for i := range a.Chunks {
		ca, cb := &a.Chunks[i], &b.Chunks[i]
		if ca.X != cb.X || ca.Z != cb.Z || ca.MinY != cb.MinY || len(ca.Blocks) != len(cb.Blocks) {
			if add("chunk %d: layout %d,%d@%d != %d,%d@%d", i, ca.X, ca.Z, ca.MinY, cb.X, cb.Z, cb.MinY) {
				return out
			}
			continue
		}
		for s := range ca.Blocks {
			for j := range ca.Blocks[s] {
				na, nb := a.BlockPalette[ca.Blocks[s][j]], b.BlockPalette[cb.Blocks[s][j]]
				if na == nb {
					continue
				}
				x, y, z := j&15, ca.MinY+s*16+j>>8, j>>4&15
				if add("chunk %d,%d block %d %d %d: %s != %s", ca.X, ca.Z, x, y, z, na, nb) {
					return out
				}
			}
			for j := range ca.Biomes[s] {
				na, nb := a.BiomePalette[ca.Biomes[s][j]], b.BiomePalette[cb.Biomes[s][j]]
				if na != nb {
					if add("chunk %d,%d section %d biome cell %d: %s != %s", ca.X, ca.Z, s, j, na, nb) {
						return out
					}
				}
			}
		}
		for _, k := range heightmap.Kinds {
			ha, hb := ca.Heights[k.String()], cb.Heights[k.String()]
			for j := range ha {
				if j < len(hb) && ha[j] != hb[j] {
					if add("chunk %d,%d %s column %d: %d != %d", ca.X, ca.Z, k, j, ha[j], hb[j]) {
						return out
					}
					break
				}
			}
		}
	}
	return out
}
