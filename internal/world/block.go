package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type BlockType uint8

const (
	BlockTypeAir BlockType = iota
	BlockTypeGrass
	BlockTypeDirt
	BlockTypeSand
	BlockTypeStone
	BlockTypePlanks
	BlockTypeGlass
	BlockTypeWater
	BlockTypeLeaves

	// NumBlockTypes is the number of defined block types, Air included.
	NumBlockTypes = int(iota)
)

var blockNames = [NumBlockTypes]string{
	"air", "grass", "dirt", "sand", "stone", "planks", "glass", "water", "leaves",
}

func (b BlockType) String() string {
	if int(b) < NumBlockTypes {
		return blockNames[b]
	}
	return fmt.Sprintf("block(%d)", uint8(b))
}

// ParseBlockType resolves a block name such as "sand" to its type.
func ParseBlockType(name string) (BlockType, error) {
	for i, n := range blockNames {
		if n == name {
			return BlockType(i), nil
		}
	}
	return BlockTypeAir, fmt.Errorf("unknown block type %q", name)
}

// MaterialClass groups blocks that are drawn in the same render pass.
type MaterialClass uint8

const (
	MaterialOpaque MaterialClass = iota
	MaterialTransluscent
	MaterialSemiTransluscent

	NumMaterialClasses = int(iota)
)

// MaterialClasses lists every class in render pass order.
var MaterialClasses = [NumMaterialClasses]MaterialClass{
	MaterialOpaque,
	MaterialTransluscent,
	MaterialSemiTransluscent,
}

func (m MaterialClass) String() string {
	switch m {
	case MaterialOpaque:
		return "opaque"
	case MaterialTransluscent:
		return "transluscent"
	case MaterialSemiTransluscent:
		return "semi_transluscent"
	}
	return fmt.Sprintf("material(%d)", uint8(m))
}

// Material returns the material class of b. Air has none.
func (b BlockType) Material() (MaterialClass, bool) {
	switch b {
	case BlockTypeAir:
		return 0, false
	case BlockTypeGlass, BlockTypeWater:
		return MaterialTransluscent, true
	case BlockTypeLeaves:
		return MaterialSemiTransluscent, true
	}
	return MaterialOpaque, true
}

func (b BlockType) IsAir() bool { return b == BlockTypeAir }

// IsOpaque reports whether b fully hides the faces of its neighbours.
func (b BlockType) IsOpaque() bool {
	m, ok := b.Material()
	return ok && m == MaterialOpaque
}

// BlockFace identifies one of the six axis-aligned faces of a block.
type BlockFace uint8

const (
	FaceNorth  BlockFace = iota // +Z
	FaceSouth                   // -Z
	FaceEast                    // +X
	FaceWest                    // -X
	FaceTop                     // +Y
	FaceBottom                  // -Y
)

// Faces lists all block faces.
var Faces = [6]BlockFace{FaceNorth, FaceSouth, FaceEast, FaceWest, FaceTop, FaceBottom}

var faceNormals = [6][3]int{
	{0, 0, 1},
	{0, 0, -1},
	{1, 0, 0},
	{-1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
}

// Normal returns the unit offset from a block to the neighbour behind face f.
func (f BlockFace) Normal() [3]int { return faceNormals[f] }

func (f BlockFace) Vec3() mgl32.Vec3 {
	n := faceNormals[f]
	return mgl32.Vec3{float32(n[0]), float32(n[1]), float32(n[2])}
}

// Opposite returns the face pointing the other way.
func (f BlockFace) Opposite() BlockFace { return f ^ 1 }

func (f BlockFace) String() string {
	return [...]string{"north", "south", "east", "west", "top", "bottom"}[f]
}
