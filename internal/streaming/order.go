package streaming

import (
	"sort"

	"voxelstream/internal/world"
)

// ChunkOrder returns every in-bounds chunk within Chebyshev distance radius
// of center, nearest first. Ties are broken by X then Z so the order is
// deterministic.
func ChunkOrder(center world.ChunkCoord, radius, worldWidth int) []world.ChunkCoord {
	if radius < 0 {
		return nil
	}
	if center.X-radius > worldWidth-1 || center.X+radius < 0 || center.Z-radius > worldWidth-1 || center.Z+radius < 0 {
		return nil
	}
	minX, maxX := clamp(center.X-radius, 0, worldWidth-1), clamp(center.X+radius, 0, worldWidth-1)
	minZ, maxZ := clamp(center.Z-radius, 0, worldWidth-1), clamp(center.Z+radius, 0, worldWidth-1)

	out := make([]world.ChunkCoord, 0, (maxX-minX+1)*(maxZ-minZ+1))
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			out = append(out, world.ChunkCoord{X: x, Z: z})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DistSq(center), out[j].DistSq(center)
		if di != dj {
			return di < dj
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Diff splits two chunk orders into the chunks only in next (entering, in
// next's order) and the chunks only in prev (leaving, in prev's order).
func Diff(prev, next []world.ChunkCoord) (entering, leaving []world.ChunkCoord) {
	inPrev := make(map[world.ChunkCoord]struct{}, len(prev))
	for _, c := range prev {
		inPrev[c] = struct{}{}
	}
	inNext := make(map[world.ChunkCoord]struct{}, len(next))
	for _, c := range next {
		inNext[c] = struct{}{}
		if _, ok := inPrev[c]; !ok {
			entering = append(entering, c)
		}
	}
	for _, c := range prev {
		if _, ok := inNext[c]; !ok {
			leaving = append(leaving, c)
		}
	}
	return entering, leaving
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
