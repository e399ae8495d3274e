package blocks

import (
	"voxelstream/internal/graphics"
	renderer "voxelstream/internal/graphics/renderer"
	"voxelstream/internal/profiling"
	"voxelstream/internal/registry"
	"voxelstream/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const (
	VertShader = "chunk.vert"
	FragShader = "chunk.frag"
)

// Blocks draws the visible chunks from the instance pool, one pass per
// material class. Every pass walks the draw list from the farthest chunk in.
type Blocks struct {
	shader   *graphics.Shader
	atlas    uint32
	pool     *graphics.InstancePool
	registry *registry.Registry
}

func NewBlocks(pool *graphics.InstancePool, reg *registry.Registry) *Blocks {
	if reg == nil {
		reg = registry.Default()
	}
	return &Blocks{pool: pool, registry: reg}
}

func (b *Blocks) Init() error {
	var err error
	b.shader, err = graphics.NewShader(VertShader, FragShader)
	if err != nil {
		return err
	}
	b.atlas = graphics.UploadTexture(graphics.BuildAtlas(b.registry))

	b.shader.Use()
	b.shader.SetInt("atlas", 0)
	b.shader.SetFloat("tileSize", 1.0/registry.AtlasTiles)
	return nil
}

func (b *Blocks) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderer.renderBlocks")()
	b.shader.Use()
	b.shader.SetMatrix4("view", ctx.View)
	b.shader.SetMatrix4("projection", ctx.Proj)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.atlas)

	for _, class := range world.MaterialClasses {
		b.beginPass(class)
		for _, dc := range ctx.Streaming.DrawList(class) {
			b.pool.Draw(dc.Slot, class)
		}
	}
	b.endPasses()
}

func (b *Blocks) beginPass(class world.MaterialClass) {
	switch class {
	case world.MaterialOpaque:
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
		b.shader.SetBool("alphaTest", false)
	case world.MaterialTransluscent:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		b.shader.SetBool("alphaTest", false)
	case world.MaterialSemiTransluscent:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(true)
		b.shader.SetBool("alphaTest", true)
	}
}

func (b *Blocks) endPasses() {
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

func (b *Blocks) SetViewport(width, height int) {}

func (b *Blocks) Dispose() {
	if b.atlas != 0 {
		gl.DeleteTextures(1, &b.atlas)
		b.atlas = 0
	}
	if b.shader != nil {
		b.shader.Delete()
	}
	b.pool.Dispose()
}
