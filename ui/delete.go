package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lucidfort/snapgram/social"
)

// DeleteFailedTitle is the toast shown when a post could not be deleted.
const DeleteFailedTitle = "Could not delete post"

var (
	// ErrNotOpen is returned by Confirm when the confirmation is not shown.
	ErrNotOpen = errors.New("ui: confirmation not open")
	// ErrBusy is returned by Confirm while a delete is already running.
	ErrBusy = errors.New("ui: delete in progress")
)

// Navigator moves through the navigation history.
type Navigator interface {
	Back()
}

// Toaster shows a short notice to the user.
type Toaster interface {
	Toast(title string)
}

// PostDeleter runs the delete-post mutation.
type PostDeleter interface {
	DeletePost(ctx context.Context, postID string) (*social.Deleted, error)
}

// DeleteState is the state of a DeleteConfirmation.
type DeleteState int

const (
	DeleteClosed DeleteState = iota
	DeletePending
	DeleteRunning
)

func (s DeleteState) String() string {
	switch s {
	case DeletePending:
		return "pending"
	case DeleteRunning:
		return "deleting"
	default:
		return "closed"
	}
}

// DeleteConfirmation gates the deletion of one post behind an explicit
// confirmation. Its open state lives in the shared Modals descriptor.
type DeleteConfirmation struct {
	postID  string
	modals  *Modals
	deleter PostDeleter
	nav     Navigator
	toaster Toaster
	log     *slog.Logger

	mu   sync.Mutex
	busy bool
}

// NewDeleteConfirmation creates the confirmation for postID.
func NewDeleteConfirmation(postID string, modals *Modals, deleter PostDeleter, nav Navigator, toaster Toaster, logger *slog.Logger) *DeleteConfirmation {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteConfirmation{
		postID:  postID,
		modals:  modals,
		deleter: deleter,
		nav:     nav,
		toaster: toaster,
		log:     logger,
	}
}

// Open shows the confirmation, closing any other modal.
func (d *DeleteConfirmation) Open() {
	d.modals.Open(ModalDelete, d.postID)
}

// Cancel closes the confirmation without deleting. It does nothing while the
// delete is running.
func (d *DeleteConfirmation) Cancel() {
	if d.Busy() {
		return
	}
	d.modals.closeIf(ModalDelete, d.postID)
}

// Toggle follows the dialog's open-change event: an open confirmation closes,
// a closed one opens.
func (d *DeleteConfirmation) Toggle() {
	if d.modals.IsOpen(ModalDelete, d.postID) {
		d.Cancel()
		return
	}
	d.Open()
}

// Busy reports whether the delete is running.
func (d *DeleteConfirmation) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// State reports where the confirmation is in its lifecycle.
func (d *DeleteConfirmation) State() DeleteState {
	if d.Busy() {
		return DeleteRunning
	}
	if d.modals.IsOpen(ModalDelete, d.postID) {
		return DeletePending
	}
	return DeleteClosed
}

// Confirm deletes the post, closes the confirmation and navigates back one
// step whether or not the delete succeeded. A failure is also toasted and
// returned.
func (d *DeleteConfirmation) Confirm(ctx context.Context) error {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return ErrBusy
	}
	if !d.modals.IsOpen(ModalDelete, d.postID) {
		d.mu.Unlock()
		return ErrNotOpen
	}
	d.busy = true
	d.mu.Unlock()

	_, err := d.deleter.DeletePost(ctx, d.postID)

	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()

	d.modals.closeIf(ModalDelete, d.postID)
	d.nav.Back()

	if err != nil {
		d.log.WarnContext(ctx, "delete post failed", "post_id", d.postID, "error", err)
		d.toaster.Toast(DeleteFailedTitle)
		return err
	}
	return nil
}
