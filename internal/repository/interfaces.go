package repository

import "go-vision-console/pkg/models"

// ImageStore holds the images staged for the next submission, keyed by filename
type ImageStore interface {
	// Add inserts the image or replaces the entry with the same filename
	Add(img models.StagedImage)

	// Remove deletes the entry for filename; unknown names are ignored
	Remove(filename string)

	// Get returns the entry for filename
	Get(filename string) (models.StagedImage, bool)

	// IsEmpty reports whether no image is staged
	IsEmpty() bool

	// Len returns the number of staged images
	Len() int

	// Entries returns a snapshot of the staged images in insertion order
	Entries() []models.StagedImage

	// Clear removes every staged image
	Clear()
}
