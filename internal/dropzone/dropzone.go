package dropzone

import (
	"context"
	"fmt"
	"sync"

	"go-vision-console/pkg/models"
)

// Event is a drag-and-drop browser event delivered to the drop region
type Event string

const (
	DragEnter Event = "dragenter"
	DragOver  Event = "dragover"
	DragLeave Event = "dragleave"
	Drop      Event = "drop"
)

// ParseEvent converts an event name into an Event
func ParseEvent(name string) (Event, error) {
	switch e := Event(name); e {
	case DragEnter, DragOver, DragLeave, Drop:
		return e, nil
	}
	return "", fmt.Errorf("unknown drag event %q", name)
}

// Shower receives the file accepted by the drop zone
type Shower interface {
	Show(ctx context.Context, file models.ImageFile) (models.StagedImage, error)
}

// DropZone tracks the highlighted state of the drop region and forwards the first
// file of a drop or file-picker selection
type DropZone struct {
	mu     sync.Mutex
	active bool
	target Shower
}

func New(target Shower) *DropZone {
	return &DropZone{target: target}
}

// Handle applies a drag event and reports whether the browser default must be
// prevented, which is always the case for the drop region.
func (d *DropZone) Handle(event Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch event {
	case DragEnter, DragOver:
		d.active = true
	case DragLeave, Drop:
		d.active = false
	}
	return true
}

// Active reports whether the drop region is highlighted
func (d *DropZone) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Drop handles dropped files. Only the first file is processed.
func (d *DropZone) Drop(ctx context.Context, files []models.ImageFile) (*models.StagedImage, error) {
	d.Handle(Drop)
	return d.forwardFirst(ctx, files)
}

// Pick handles a file-picker selection. Only the first file is processed.
func (d *DropZone) Pick(ctx context.Context, files []models.ImageFile) (*models.StagedImage, error) {
	return d.forwardFirst(ctx, files)
}

func (d *DropZone) forwardFirst(ctx context.Context, files []models.ImageFile) (*models.StagedImage, error) {
	if len(files) == 0 {
		return nil, nil
	}
	img, err := d.target.Show(ctx, files[0])
	if err != nil {
		return nil, err
	}
	return &img, nil
}
