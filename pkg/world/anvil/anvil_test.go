package anvil

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"testing"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

func flatChunks(t *testing.T, cps ...pos.Chunk) []*gen.ChunkData {
	t.Helper()
	reg := blocktest.Registry(t)
	biomes, err := biome.NewRegistry(json.RawMessage(`{"minecraft:plains": {}}`))
	if err != nil {
		t.Fatalf("biome registry: %v", err)
	}
	plains, _ := biomes.ByName("plains")
	g, err := gen.NewFlatGenerator(reg, biomes, provider.HeightContext{MinY: -64, Height: 384}, plains,
		gen.FlatLayer{State: reg.MustDefault("bedrock"), Height: 1},
		gen.FlatLayer{State: reg.MustDefault("dirt"), Height: 2},
		gen.FlatLayer{State: reg.MustDefault("grass_block"), Height: 1},
	)
	if err != nil {
		t.Fatalf("flat generator: %v", err)
	}
	out := make([]*gen.ChunkData, len(cps))
	for i, cp := range cps {
		out[i] = g.Generate(cp, nil)
	}
	return out
}

func TestPackRoundTrip(t *testing.T) {
	vals := make([]uint16, 4096)
	for i := range vals {
		vals[i] = uint16(i*7) % 19
	}
	for _, width := range []int{4, 5, 9} {
		longs := Pack(vals, width)
		perLong := 64 / width
		if want := (len(vals) + perLong - 1) / perLong; len(longs) != want {
			t.Fatalf("width %d: expected %d longs, got %d", width, want, len(longs))
		}
		got := Unpack(longs, width, len(vals))
		for i := range vals {
			if got[i] != vals[i] {
				t.Fatalf("width %d: value %d: expected %d, got %d", width, i, vals[i], got[i])
			}
		}
	}
}

func TestPackDoesNotStraddle(t *testing.T) {
	// 64/5 = 12 values per long, leaving the top 4 bits unused.
	vals := make([]uint16, 13)
	for i := range vals {
		vals[i] = 31
	}
	longs := Pack(vals, 5)
	if len(longs) != 2 {
		t.Fatalf("expected 2 longs, got %d", len(longs))
	}
	if uint64(longs[0])>>60 != 0 {
		t.Fatalf("expected unused top bits, got 0x%X", uint64(longs[0]))
	}
	if longs[1] != 31 {
		t.Fatalf("expected 31 in second long, got %d", longs[1])
	}
}

func TestBitsFor(t *testing.T) {
	tests := []struct{ n, want int }{{1, 0}, {2, 1}, {3, 2}, {16, 4}, {17, 5}, {385, 9}}
	for _, tt := range tests {
		if got := bitsFor(tt.n); got != tt.want {
			t.Fatalf("bitsFor(%d): expected %d, got %d", tt.n, tt.want, got)
		}
	}
}

func TestPaletted(t *testing.T) {
	palette, idx := paletted([]uint16{9, 9, 3, 9, 4, 3})
	if want := []uint16{9, 3, 4}; !equal(palette, want) {
		t.Fatalf("expected palette %v, got %v", want, palette)
	}
	if want := []uint16{0, 0, 1, 0, 2, 1}; !equal(idx, want) {
		t.Fatalf("expected indices %v, got %v", want, idx)
	}
}

func equal(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEncodeChunk(t *testing.T) {
	c := flatChunks(t, pos.Chunk{X: 3, Z: -2})[0]

	data, err := EncodeChunk(c)
	if err != nil {
		t.Fatalf("EncodeChunk failed: %v", err)
	}
	if data[0] != 10 {
		t.Fatalf("expected root compound tag (10), got %d", data[0])
	}
	if data[len(data)-1] != 0 {
		t.Fatal("expected End tag at end of NBT")
	}
	// Root name is empty, so the first field starts at 3: TAG_Int "DataVersion".
	if data[3] != 3 || string(data[6:17]) != "DataVersion" {
		t.Fatalf("expected DataVersion first, got % x", data[3:17])
	}
	if v := int32(binary.BigEndian.Uint32(data[17:21])); v != DataVersion {
		t.Fatalf("expected data version %d, got %d", DataVersion, v)
	}
	for _, name := range []string{"xPos", "sections", "block_states", "minecraft:grass_block", "minecraft:plains", "WORLD_SURFACE", "MOTION_BLOCKING_NO_LEAVES"} {
		if !bytes.Contains(data, []byte(name)) {
			t.Fatalf("expected %q in chunk NBT", name)
		}
	}
}

func TestWriteRegions(t *testing.T) {
	dir := t.TempDir()
	cps := []pos.Chunk{{X: 0, Z: 0}, {X: 31, Z: 31}, {X: -1, Z: 0}, {X: 32, Z: -33}}
	chunks := flatChunks(t, cps...)

	n, err := WriteRegions(dir, chunks)
	if err != nil {
		t.Fatalf("WriteRegions failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 region files, got %d", n)
	}
	for _, r := range [][2]int{{0, 0}, {-1, 0}, {1, -2}} {
		info, err := os.Stat(RegionPath(dir, r[0], r[1]))
		if err != nil {
			t.Fatalf("region %v: %v", r, err)
		}
		if info.Size()%sectorSize != 0 {
			t.Fatalf("region %v: size %d is not sector aligned", r, info.Size())
		}
	}

	for i, cp := range cps {
		want, err := EncodeChunk(chunks[i])
		if err != nil {
			t.Fatal(err)
		}
		got, err := ReadChunk(dir, cp)
		if err != nil {
			t.Fatalf("ReadChunk %v: %v", cp, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("chunk %v: read back %d bytes, expected %d", cp, len(got), len(want))
		}
	}

	missing, err := ReadChunk(dir, pos.Chunk{X: 5, Z: 5})
	if err != nil {
		t.Fatalf("ReadChunk of absent chunk: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for a chunk the region does not hold")
	}
}

func TestSaveRegionRejectsForeignChunk(t *testing.T) {
	err := SaveRegion(t.TempDir(), 0, 0, map[pos.Chunk][]byte{{X: 40, Z: 0}: {10, 0, 0, 0}})
	if err == nil {
		t.Fatal("expected error for chunk outside the region")
	}
}
