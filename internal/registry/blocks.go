package registry

import (
	"fmt"
	"sync"

	"voxelstream/internal/world"
)

// AtlasTiles is the number of tiles along each side of the texture atlas.
const AtlasTiles = 16

// BlockDefinition describes how a block type is textured.
type BlockDefinition struct {
	ID          world.BlockType
	Name        string
	TextureTop  string
	TextureSide string
	TextureBot  string
}

// Texture is one atlas tile. Color is the flat RGBA used when the atlas is
// generated procedurally.
type Texture struct {
	Name  string
	Index int
	Color uint32
}

// Registry maps block types to definitions and texture names to atlas tiles.
type Registry struct {
	blocks   [world.NumBlockTypes]*BlockDefinition
	textures []Texture
	byName   map[string]int
}

func New() *Registry {
	return &Registry{byName: make(map[string]int)}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry holding the built-in blocks.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
		registerDefaults(defaultReg)
	})
	return defaultReg
}

// RegisterTexture adds a named atlas tile, returning its index. Registering an
// existing name returns the existing index.
func (r *Registry) RegisterTexture(name string, color uint32) int {
	if i, ok := r.byName[name]; ok {
		return i
	}
	i := len(r.textures)
	if i >= AtlasTiles*AtlasTiles {
		panic(fmt.Sprintf("registry: atlas full, cannot add %q", name))
	}
	r.textures = append(r.textures, Texture{Name: name, Index: i, Color: color})
	r.byName[name] = i
	return i
}

// RegisterBlock stores def. Every texture it references must already exist.
func (r *Registry) RegisterBlock(def *BlockDefinition) error {
	if int(def.ID) >= world.NumBlockTypes {
		return fmt.Errorf("registry: block id %d out of range", def.ID)
	}
	if def.ID != world.BlockTypeAir {
		for _, tex := range []string{def.TextureTop, def.TextureSide, def.TextureBot} {
			if _, ok := r.byName[tex]; !ok {
				return fmt.Errorf("registry: block %s references unknown texture %q", def.Name, tex)
			}
		}
	}
	r.blocks[def.ID] = def
	return nil
}

// Block returns the definition of b, or nil if it was never registered.
func (r *Registry) Block(b world.BlockType) *BlockDefinition {
	if int(b) >= len(r.blocks) {
		return nil
	}
	return r.blocks[b]
}

// Textures returns all atlas tiles in index order.
func (r *Registry) Textures() []Texture { return r.textures }

// TextureFor returns the atlas tile index used on face f of block b.
func (r *Registry) TextureFor(b world.BlockType, f world.BlockFace) int {
	def := r.Block(b)
	if def == nil {
		return 0
	}
	name := def.TextureSide
	switch f {
	case world.FaceTop:
		name = def.TextureTop
	case world.FaceBottom:
		name = def.TextureBot
	}
	return r.byName[name]
}

// AtlasOffset returns the normalised UV of the top-left corner of the tile
// used on face f of block b.
func (r *Registry) AtlasOffset(b world.BlockType, f world.BlockFace) [2]float32 {
	i := r.TextureFor(b, f)
	const step = 1.0 / AtlasTiles
	return [2]float32{float32(i%AtlasTiles) * step, float32(i/AtlasTiles) * step}
}

func registerDefaults(r *Registry) {
	textures := []struct {
		name  string
		color uint32
	}{
		{"grass_top", 0x5fa832ff},
		{"grass_side", 0x7a8c45ff},
		{"dirt", 0x8b5a2bff},
		{"sand", 0xdbd3a0ff},
		{"stone", 0x808080ff},
		{"planks", 0xa0784aff},
		{"glass", 0xc8e6ff60},
		{"water", 0x2f5fd0a0},
		{"leaves", 0x3c7a2ac0},
	}
	for _, t := range textures {
		r.RegisterTexture(t.name, t.color)
	}

	defs := []*BlockDefinition{
		{ID: world.BlockTypeAir, Name: "air"},
		{ID: world.BlockTypeGrass, Name: "grass", TextureTop: "grass_top", TextureSide: "grass_side", TextureBot: "dirt"},
		{ID: world.BlockTypeDirt, Name: "dirt", TextureTop: "dirt", TextureSide: "dirt", TextureBot: "dirt"},
		{ID: world.BlockTypeSand, Name: "sand", TextureTop: "sand", TextureSide: "sand", TextureBot: "sand"},
		{ID: world.BlockTypeStone, Name: "stone", TextureTop: "stone", TextureSide: "stone", TextureBot: "stone"},
		{ID: world.BlockTypePlanks, Name: "planks", TextureTop: "planks", TextureSide: "planks", TextureBot: "planks"},
		{ID: world.BlockTypeGlass, Name: "glass", TextureTop: "glass", TextureSide: "glass", TextureBot: "glass"},
		{ID: world.BlockTypeWater, Name: "water", TextureTop: "water", TextureSide: "water", TextureBot: "water"},
		{ID: world.BlockTypeLeaves, Name: "leaves", TextureTop: "leaves", TextureSide: "leaves", TextureBot: "leaves"},
	}
	for _, d := range defs {
		if err := r.RegisterBlock(d); err != nil {
			panic(err)
		}
	}
}
