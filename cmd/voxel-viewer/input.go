package main

import (
	"voxelstream/internal/input"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// mouseCode maps a mouse button into the key code space. glfw key codes are
// never negative.
func mouseCode(b glfw.MouseButton) int {
	return -1 - int(b)
}

func newInputManager() *input.Manager {
	im := input.NewManager()
	im.BindKey(int(glfw.KeyW), input.ActionMoveForward)
	im.BindKey(int(glfw.KeyS), input.ActionMoveBackward)
	im.BindKey(int(glfw.KeyA), input.ActionMoveLeft)
	im.BindKey(int(glfw.KeyD), input.ActionMoveRight)
	im.BindKey(int(glfw.KeySpace), input.ActionMoveUp)
	im.BindKey(int(glfw.KeyLeftShift), input.ActionMoveDown)
	im.BindKey(mouseCode(glfw.MouseButtonLeft), input.ActionBreak)
	im.BindKey(mouseCode(glfw.MouseButtonRight), input.ActionPlace)
	im.BindKey(int(glfw.KeyEscape), input.ActionQuit)

	selectKeys := []glfw.Key{glfw.Key1, glfw.Key2, glfw.Key3, glfw.Key4, glfw.Key5, glfw.Key6, glfw.Key7, glfw.Key8}
	for i, k := range selectKeys {
		im.BindKey(int(k), input.ActionSelect1+input.Action(i))
	}
	return im
}

func setupInputHandlers(window *glfw.Window, loop *ViewerLoop) {
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		loop.camera.HandleMouseMovement(xpos, ypos)
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		loop.input.HandleKey(mouseCode(button), action == glfw.Press)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyUnknown {
			return
		}
		loop.input.HandleKey(int(key), action != glfw.Release)
	})

	window.SetFocusCallback(func(w *glfw.Window, focused bool) {
		if focused {
			loop.camera.ResetMouse()
		}
	})

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		loop.renderer.UpdateViewport(width, height)
	})

	// redraw during live resize, when the loop is blocked in PollEvents
	window.SetRefreshCallback(func(w *glfw.Window) {
		loop.RefreshRender()
	})
}
