package input

import (
	"sync"
)

// Action represents a logical action, not a physical key
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionBreak
	ActionPlace
	ActionSelect1
	ActionSelect2
	ActionSelect3
	ActionSelect4
	ActionSelect5
	ActionSelect6
	ActionSelect7
	ActionSelect8
	ActionQuit
	ActionCount // Sentinel value for array sizing
)

// Manager maps platform key codes to actions and tracks held and
// just-pressed state per frame. Key codes are opaque ints so the package
// does not depend on a windowing library.
type Manager struct {
	mu sync.Mutex

	keyToActions map[int][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool
}

func NewManager() *Manager {
	return &Manager{keyToActions: make(map[int][]Action)}
}

// BindKey binds a key code to an action. A key may drive several actions.
func (m *Manager) BindKey(code int, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	m.keyToActions[code] = append(m.keyToActions[code], action)
	m.mu.Unlock()
}

// HandleKey records a press or release of a key code.
func (m *Manager) HandleKey(code int, pressed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, act := range m.keyToActions[code] {
		if pressed && !m.currentState[act] {
			m.justPressed[act] = true
		}
		m.currentState[act] = pressed
	}
}

// IsActive reports whether the action is currently held.
func (m *Manager) IsActive(action Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentState[action]
}

// JustPressed reports whether the action was pressed since the last PostUpdate.
func (m *Manager) JustPressed(action Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.justPressed[action]
}

// MoveAxes returns the held movement as forward, right and up in [-1, 1].
func (m *Manager) MoveAxes() (forward, right, up float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	axis := func(pos, neg Action) float32 {
		var v float32
		if m.currentState[pos] {
			v++
		}
		if m.currentState[neg] {
			v--
		}
		return v
	}
	return axis(ActionMoveForward, ActionMoveBackward),
		axis(ActionMoveRight, ActionMoveLeft),
		axis(ActionMoveUp, ActionMoveDown)
}

// EmitCommands pushes a command for every edit action pressed this frame.
func (m *Manager) EmitCommands(q *Queue) {
	m.mu.Lock()
	pressed := m.justPressed
	m.mu.Unlock()

	for a := ActionSelect1; a <= ActionSelect8; a++ {
		if pressed[a] {
			q.Push(Command{Kind: CommandSelect, Block: selectable[a-ActionSelect1]})
		}
	}
	if pressed[ActionBreak] {
		q.Push(Command{Kind: CommandBreak})
	}
	if pressed[ActionPlace] {
		q.Push(Command{Kind: CommandPlace})
	}
}

// PostUpdate clears edge flags. Call once at the end of each frame.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	m.justPressed = [ActionCount]bool{}
	m.mu.Unlock()
}
