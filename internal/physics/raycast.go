package physics

import (
	"fmt"

	"voxelstream/internal/profiling"
	"voxelstream/internal/world"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultMaxIter is the number of unit steps the march takes along the ray.
	DefaultMaxIter = 20
	// DefaultExtraChecks is how many candidates are still examined after the first hit.
	DefaultExtraChecks = 6
)

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition world.BlockPos
	// AdjacentPosition is the cell in front of Face, on the eye's side.
	AdjacentPosition world.BlockPos
	Face             world.BlockFace
	Distance         float32
	Hit              bool
}

// Params bound the work done by Raycast.
type Params struct {
	MaxIter     int
	ExtraChecks int
}

// DefaultParams returns the standard march budget.
func DefaultParams() Params {
	return Params{MaxIter: DefaultMaxIter, ExtraChecks: DefaultExtraChecks}
}

var unitBox = cube.Box(0, 0, 0, 1, 1, 1)

// Raycast marches from eye along dir in unit steps, gathering candidate cells:
// the cell containing the eye, then at every step the cell under the ray plus
// its neighbours on the side the ray came from. Solid candidates are tested
// against the ray exactly and the nearest intersection wins. Once something
// is hit only p.ExtraChecks more candidates are examined, so the result is
// the nearest hit in the local neighbourhood rather than a proven global one.
func Raycast(w *world.World, eye, dir mgl32.Vec3, p Params) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	if dir.LenSqr() == 0 {
		return RaycastResult{}
	}
	dir = dir.Normalize()

	back := [3][2]int{
		{0, -sign(dir[0])},
		{0, -sign(dir[1])},
		{0, -sign(dir[2])},
	}

	var best RaycastResult
	seen := make(map[cube.Pos]struct{}, 8*(p.MaxIter+1))
	extra, stop := 0, false
	visit := func(c cube.Pos) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		if best.Hit {
			if extra >= p.ExtraChecks {
				stop = true
				return
			}
			extra++
		}
		if !w.IsSolid(c[0], c[1], c[2]) {
			return
		}
		if r, ok := intersectCell(eye, dir, c); ok && (!best.Hit || r.Distance < best.Distance) {
			best = r
		}
	}

	visit(cube.PosFromVec3(eye))
	for step := 1; step <= p.MaxIter && !stop; step++ {
		base := cube.PosFromVec3(eye.Add(dir.Mul(float32(step))))
		for _, dx := range back[0] {
			for _, dy := range back[1] {
				for _, dz := range back[2] {
					if stop {
						break
					}
					visit(cube.Pos{base[0] + dx, base[1] + dy, base[2] + dz})
				}
			}
		}
	}
	return best
}

// RaycastDDA walks every cell the ray passes through in order and returns the
// first solid one within maxDist.
func RaycastDDA(w *world.World, eye, dir mgl32.Vec3, maxDist float32) RaycastResult {
	defer profiling.Track("physics.RaycastDDA")()
	if dir.LenSqr() == 0 {
		return RaycastResult{}
	}
	dir = dir.Normalize()

	cell := cube.PosFromVec3(eye)
	var step [3]int
	var tMax, tDelta [3]float32
	for i := 0; i < 3; i++ {
		step[i] = sign(dir[i])
		tMax[i] = distanceToBoundary(eye[i], dir[i])
		if dir[i] != 0 {
			tDelta[i] = math32.Abs(1 / dir[i])
		} else {
			tDelta[i] = math32.MaxFloat32
		}
	}

	for {
		if w.IsSolid(cell[0], cell[1], cell[2]) {
			if r, ok := intersectCell(eye, dir, cell); ok && r.Distance <= maxDist {
				return r
			}
		}
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > maxDist {
			return RaycastResult{}
		}
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
	}
}

// intersectCell runs an inclusive slab test of the ray against the unit cell c.
func intersectCell(eye, dir mgl32.Vec3, c cube.Pos) (RaycastResult, bool) {
	bb := unitBox.Translate(c.Vec3())
	lo, hi := bb.Min(), bb.Max()

	tNear, tFar := float32(-math32.MaxFloat32), float32(math32.MaxFloat32)
	nearAxis := -1
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if eye[i] < lo[i] || eye[i] > hi[i] {
				return RaycastResult{}, false
			}
			continue
		}
		t1 := (lo[i] - eye[i]) / dir[i]
		t2 := (hi[i] - eye[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear, nearAxis = t1, i
		}
		if t2 < tFar {
			tFar = t2
		}
	}
	if tFar < tNear || tFar < 0 {
		return RaycastResult{}, false
	}

	hit := world.BlockPos{c[0], c[1], c[2]}
	dist := tNear
	axis := nearAxis
	if dist < 0 || axis < 0 {
		// The eye is inside the cell.
		dist = 0
		axis = dominantAxis(dir)
	}
	face := entryFace(axis, dir[axis])
	return RaycastResult{
		HitPosition:      hit,
		AdjacentPosition: hit.Side(face),
		Face:             face,
		Distance:         dist,
		Hit:              true,
	}, true
}

// entryFace returns the face of a cell a ray travelling along axis with
// component d enters through.
func entryFace(axis int, d float32) world.BlockFace {
	neg := d >= 0
	switch axis {
	case 0:
		if neg {
			return world.FaceWest
		}
		return world.FaceEast
	case 1:
		if neg {
			return world.FaceBottom
		}
		return world.FaceTop
	default:
		if neg {
			return world.FaceSouth
		}
		return world.FaceNorth
	}
}

func dominantAxis(v mgl32.Vec3) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if math32.Abs(v[i]) > math32.Abs(v[axis]) {
			axis = i
		}
	}
	return axis
}

// sign returns -1 for negative values and +1 otherwise, zero included.
func sign(v float32) int {
	if v < 0 {
		return -1
	}
	return 1
}

func distanceToBoundary(s, ds float32) float32 {
	if ds == 0 {
		return math32.MaxFloat32
	}
	if ds < 0 {
		s, ds = -s, -ds
		if math32.Floor(s) == s {
			return 0
		}
	}
	return (1 - (s - math32.Floor(s))) / ds
}

// Caster resolves the block an observer is looking at.
type Caster interface {
	Cast(w *world.World, eye, dir mgl32.Vec3) RaycastResult
}

// CasterFunc adapts a function to Caster.
type CasterFunc func(w *world.World, eye, dir mgl32.Vec3) RaycastResult

func (f CasterFunc) Cast(w *world.World, eye, dir mgl32.Vec3) RaycastResult { return f(w, eye, dir) }

const (
	StrategyMarch = "march"
	StrategyDDA   = "dda"
)

// NewCaster returns the caster for strategy. The DDA caster reaches as far
// as p.MaxIter blocks, matching the march's range.
func NewCaster(strategy string, p Params) (Caster, error) {
	switch strategy {
	case "", StrategyMarch:
		return CasterFunc(func(w *world.World, eye, dir mgl32.Vec3) RaycastResult {
			return Raycast(w, eye, dir, p)
		}), nil
	case StrategyDDA:
		reach := float32(p.MaxIter)
		return CasterFunc(func(w *world.World, eye, dir mgl32.Vec3) RaycastResult {
			return RaycastDDA(w, eye, dir, reach)
		}), nil
	}
	return nil, fmt.Errorf("unknown raycast strategy %q", strategy)
}
