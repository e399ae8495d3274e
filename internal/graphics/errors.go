package graphics

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// maxDrainedErrors bounds how many queued GL errors one poll collects.
const maxDrainedErrors = 16

// GLError is an error code reported by glGetError.
type GLError uint32

func (e GLError) Error() string {
	switch uint32(e) {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	}
	return fmt.Sprintf("GL error 0x%04x", uint32(e))
}

// ErrorCheck is a one-shot task that reports the first GL error raised by
// the commands submitted before it was spawned. It satisfies game.Task.
type ErrorCheck struct {
	getError func() uint32
}

func NewErrorCheck() *ErrorCheck {
	return &ErrorCheck{getError: gl.GetError}
}

func (c *ErrorCheck) Poll() (bool, error) {
	var first uint32
	for i := 0; i < maxDrainedErrors; i++ {
		code := c.getError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return true, GLError(first)
	}
	return true, nil
}
