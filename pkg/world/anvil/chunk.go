package anvil

import (
	"bytes"
	"math/bits"
	"sort"

	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/nbt"
)

// DataVersion stamps exported chunks. It matches the game version the
// embedded tables follow.
const DataVersion = 3953

// heightmapNames are the heightmaps a full chunk stores.
var heightmapNames = []heightmap.Kind{
	heightmap.WorldSurface,
	heightmap.OceanFloor,
	heightmap.MotionBlocking,
	heightmap.MotionBlockingNoLeaves,
}

// EncodeChunk encodes a generated chunk as uncompressed chunk NBT with
// paletted sections.
func EncodeChunk(c *gen.ChunkData) ([]byte, error) {
	var buf bytes.Buffer
	w := nbt.NewWriter(&buf)
	reg := c.Registry()
	biomes := c.Biomes()

	w.BeginCompound("")
	w.WriteInt("DataVersion", DataVersion)
	w.WriteInt("xPos", int32(c.Pos.X))
	w.WriteInt("zPos", int32(c.Pos.Z))
	w.WriteInt("yPos", int32(c.MinY>>4))
	w.WriteString("Status", "minecraft:full")
	w.WriteLong("LastUpdate", 0)
	w.WriteLong("InhabitedTime", 0)

	w.BeginList("sections", nbt.TagCompound, int32(len(c.Sections)))
	for i, sec := range c.Sections {
		w.BeginCompound("")
		w.WriteTagByte("Y", byte(int8(c.MinY>>4+i)))

		palette, indices := paletted(sec.Blocks[:])
		w.BeginCompound("block_states")
		w.BeginList("palette", nbt.TagCompound, int32(len(palette)))
		for _, id := range palette {
			s := reg.State(id)
			w.BeginCompound("")
			w.WriteString("Name", s.Name())
			if props := s.Properties(); len(props) > 0 {
				w.BeginCompound("Properties")
				for _, k := range sortedKeys(props) {
					w.WriteString(k, props[k])
				}
				w.EndCompound()
			}
			w.EndCompound()
		}
		w.EndList()
		if len(palette) > 1 {
			w.WriteLongArray("data", Pack(indices, max(4, bitsFor(len(palette)))))
		}
		w.EndCompound()

		palette, indices = paletted(sec.Biomes[:])
		w.BeginCompound("biomes")
		w.BeginList("palette", nbt.TagString, int32(len(palette)))
		for _, id := range palette {
			w.WriteString("", biomes.ByID(int(id)).Name)
		}
		w.EndList()
		if len(palette) > 1 {
			w.WriteLongArray("data", Pack(indices, bitsFor(len(palette))))
		}
		w.EndCompound()

		w.EndCompound()
	}
	w.EndList()

	height := len(c.Sections) * 16
	w.BeginCompound("Heightmaps")
	for _, k := range heightmapNames {
		vals := make([]uint16, 256)
		for z := range 16 {
			for x := range 16 {
				vals[z*16+x] = uint16(c.Top(k, x, z) - c.MinY)
			}
		}
		w.WriteLongArray(k.String(), Pack(vals, bitsFor(height+1)))
	}
	w.EndCompound()

	w.EndCompound()

	if w.Err() != nil {
		return nil, w.Err()
	}
	return buf.Bytes(), nil
}

// paletted maps values to indices into a palette ordered by first
// appearance.
func paletted(values []uint16) (palette []uint16, indices []uint16) {
	seen := make(map[uint16]uint16)
	indices = make([]uint16, len(values))
	for i, v := range values {
		idx, ok := seen[v]
		if !ok {
			idx = uint16(len(palette))
			seen[v] = idx
			palette = append(palette, v)
		}
		indices[i] = idx
	}
	return palette, indices
}

// bitsFor returns the bits needed to store values below n.
func bitsFor(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Pack packs values of width bits into longs, least significant first.
// Values never straddle two longs.
func Pack(values []uint16, width int) []int64 {
	if width == 0 {
		return nil
	}
	perLong := 64 / width
	out := make([]int64, (len(values)+perLong-1)/perLong)
	mask := uint64(1)<<width - 1
	for i, v := range values {
		shift := (i % perLong) * width
		out[i/perLong] |= int64((uint64(v) & mask) << shift)
	}
	return out
}

// Unpack reverses Pack for n values.
func Unpack(longs []int64, width, n int) []uint16 {
	out := make([]uint16, n)
	if width == 0 {
		return out
	}
	perLong := 64 / width
	mask := uint64(1)<<width - 1
	for i := range out {
		shift := (i % perLong) * width
		out[i] = uint16(uint64(longs[i/perLong]) >> shift & mask)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
