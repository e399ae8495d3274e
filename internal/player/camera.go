package player

import (
	"voxelstream/internal/world"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Observer is what the voxel core needs from the camera each frame.
type Observer struct {
	Eye   mgl32.Vec3
	Front mgl32.Vec3
	// CrossedChunk is true when the eye is in a different chunk than at the
	// previous Observe call, and on the first call.
	CrossedChunk bool
}

// Camera is a free-flying yaw/pitch camera.
type Camera struct {
	Position    mgl32.Vec3
	Yaw         float32 // degrees, 0 looks along +X
	Pitch       float32 // degrees, clamped to [-89, 89]
	Sensitivity float32

	firstMouse   bool
	lastX, lastY float64

	lastChunk world.ChunkCoord
	observed  bool
}

func NewCamera(position mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{Position: position, Yaw: yaw, Sensitivity: 0.1, firstMouse: true}
	c.Look(0, pitch)
	return c
}

// HandleMouseMovement turns cursor positions into yaw and pitch changes.
func (c *Camera) HandleMouseMovement(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}
	dx := float32(xpos-c.lastX) * c.Sensitivity
	dy := float32(c.lastY-ypos) * c.Sensitivity
	c.lastX, c.lastY = xpos, ypos
	c.Look(dx, dy)
}

// ResetMouse makes the next cursor position the reference point again.
func (c *Camera) ResetMouse() { c.firstMouse = true }

// Look rotates the camera by the given degrees.
func (c *Camera) Look(dYaw, dPitch float32) {
	c.Yaw = math32.Mod(c.Yaw+dYaw, 360)
	c.Pitch = mgl32.Clamp(c.Pitch+dPitch, -89, 89)
}

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	yaw := mgl32.DegToRad(c.Yaw)
	pitch := mgl32.DegToRad(c.Pitch)
	return mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
}

// Move translates the camera. forward and right move on the horizontal
// plane, up moves along +Y; each is scaled by distance.
func (c *Camera) Move(forward, right, up, distance float32) {
	yaw := mgl32.DegToRad(c.Yaw)
	flat := mgl32.Vec3{math32.Cos(yaw), 0, math32.Sin(yaw)}
	side := flat.Cross(mgl32.Vec3{0, 1, 0})
	delta := flat.Mul(forward).Add(side.Mul(right)).Add(mgl32.Vec3{0, up, 0})
	if delta.LenSqr() == 0 {
		return
	}
	c.Position = c.Position.Add(delta.Normalize().Mul(distance))
}

// ViewMatrix returns the look-at matrix for the current pose.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

// Observe samples the camera for this frame.
func (c *Camera) Observe() Observer {
	chunk := world.ChunkCoordOf(int(math32.Floor(c.Position.X())), int(math32.Floor(c.Position.Z())))
	crossed := !c.observed || chunk != c.lastChunk
	c.lastChunk, c.observed = chunk, true
	return Observer{Eye: c.Position, Front: c.Front(), CrossedChunk: crossed}
}
