package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	apperrors "go-vision-console/internal/errors"
	"go-vision-console/internal/repository"
	"go-vision-console/pkg/models"
	"go-vision-console/pkg/validation"
)

// Info is the human readable metadata shown next to the preview
type Info struct {
	Name       string `json:"name"`
	Size       string `json:"size"`
	Dimensions string `json:"dimensions,omitempty"`
}

// Panel is the render state of the preview container
type Panel struct {
	Visible  bool   `json:"visible"`
	DataURL  string `json:"data_url,omitempty"`
	Filename string `json:"filename,omitempty"`
	Info     *Info  `json:"info,omitempty"`
}

// Previewer shows the most recently accepted image and records it into the image store
type Previewer struct {
	mu        sync.Mutex
	store     repository.ImageStore
	validator *validation.UploadValidator
	panel     Panel
}

// NewPreviewer creates a previewer that records accepted images into store
func NewPreviewer(store repository.ImageStore, validator *validation.UploadValidator) *Previewer {
	if validator == nil {
		validator = validation.NewUploadValidator()
	}
	return &Previewer{
		store:     store,
		validator: validator,
	}
}

// Show decodes file into a data URL, then updates the panel and stages the image.
// On decode failure nothing is changed and the error is returned to the caller.
func (p *Previewer) Show(ctx context.Context, file models.ImageFile) (models.StagedImage, error) {
	img, err := Decode(ctx, p.validator, file)
	if err != nil {
		return models.StagedImage{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.Add(img)
	p.panel = Panel{
		Visible:  true,
		DataURL:  img.PreviewDataURL,
		Filename: img.Filename,
		Info: &Info{
			Name:       img.Filename,
			Size:       FormatSize(img.File.Size()),
			Dimensions: fmt.Sprintf("%dx%d", img.Width, img.Height),
		},
	}
	return img, nil
}

// Clear hides the panel and removes the shown image from the store.
// It returns the filename that was shown, if any.
func (p *Previewer) Clear() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	shown := p.panel.Filename
	p.panel = Panel{}
	if shown == "" {
		return "", false
	}
	p.store.Remove(shown)
	return shown, true
}

// Forget clears the panel if it currently shows filename, without touching the store
func (p *Previewer) Forget(filename string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.panel.Filename == filename {
		p.panel = Panel{}
	}
}

// Panel returns a copy of the current panel state
func (p *Previewer) Panel() Panel {
	p.mu.Lock()
	defer p.mu.Unlock()

	panel := p.panel
	if panel.Info != nil {
		info := *panel.Info
		panel.Info = &info
	}
	return panel
}

// Decode validates file and turns it into a staged image with a data URL preview
func Decode(ctx context.Context, validator *validation.UploadValidator, file models.ImageFile) (models.StagedImage, error) {
	if err := ctx.Err(); err != nil {
		return models.StagedImage{}, err
	}

	contentType, err := validator.ValidateImageFile(file)
	if err != nil {
		return models.StagedImage{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return models.StagedImage{}, apperrors.NewProcessingError("Failed to decode image", err)
	}

	file.ContentType = contentType
	return models.StagedImage{
		Filename:       file.Name,
		File:           file,
		PreviewDataURL: "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(file.Data),
		Width:          cfg.Width,
		Height:         cfg.Height,
	}, nil
}
