package ui

import "sync"

// ModalKind names the dialog a modal descriptor refers to.
type ModalKind string

// ModalDelete is the delete-post confirmation dialog.
const ModalDelete ModalKind = "DELETE"

// Modal is either Closed or Open.
type Modal interface {
	isModal()
}

// Closed means no modal is shown.
type Closed struct{}

// Open describes the single modal currently shown.
type Open struct {
	Kind     ModalKind
	TargetID string
}

func (Closed) isModal() {}
func (Open) isModal()   {}

// Modals holds the one-modal-at-a-time descriptor shared by the components of
// a screen. Opening a modal replaces whatever was open before.
type Modals struct {
	mu      sync.Mutex
	current Modal
}

// NewModals returns a descriptor with nothing open.
func NewModals() *Modals {
	return &Modals{current: Closed{}}
}

// Current returns the open modal, or Closed.
func (m *Modals) Current() Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Open replaces the current modal with kind for targetID.
func (m *Modals) Open(kind ModalKind, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Open{Kind: kind, TargetID: targetID}
}

// Close closes whichever modal is open.
func (m *Modals) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Closed{}
}

// IsOpen reports whether the open modal is kind for targetID.
func (m *Modals) IsOpen(kind ModalKind, targetID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	open, ok := m.current.(Open)
	return ok && open.Kind == kind && open.TargetID == targetID
}

// closeIf closes the modal only when it is kind for targetID.
func (m *Modals) closeIf(kind ModalKind, targetID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	open, ok := m.current.(Open)
	if !ok || open.Kind != kind || open.TargetID != targetID {
		return false
	}
	m.current = Closed{}
	return true
}
