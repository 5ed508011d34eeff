package market

// BlockPos is an exact integer block position inside a named world.
// Equality is by value; this is the shop's primary identity.
type BlockPos struct {
	World string
	X     int
	Y     int
	Z     int
}

// ChunkKey is the coarse 16x16 bucket used to shard the index.
type ChunkKey struct {
	World string
	X     int
	Z     int
}

const chunkSize = 16

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ChunkOf buckets a block position by floor-division, so negative coordinates
// land in the right chunk.
func ChunkOf(p BlockPos) ChunkKey {
	return ChunkKey{World: p.World, X: floorDiv(p.X, chunkSize), Z: floorDiv(p.Z, chunkSize)}
}

// DistanceSquared between two positions; returns -1 when the worlds differ.
func DistanceSquared(a, b BlockPos) int {
	if a.World != b.World {
		return -1
	}
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}
