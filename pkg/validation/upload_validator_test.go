package validation

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	apperrors "go-vision-console/internal/errors"
	"go-vision-console/pkg/models"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White}), nil); err != nil {
		t.Fatalf("Failed to encode GIF: %v", err)
	}
	return buf.Bytes()
}

func TestValidateImageFile_Valid(t *testing.T) {
	validator := NewUploadValidator()

	tests := []struct {
		name     string
		file     models.ImageFile
		wantType string
	}{
		{"png", models.ImageFile{Name: "photo.png", Data: encodePNG(t)}, "image/png"},
		{"upper case extension", models.ImageFile{Name: "PHOTO.PNG", Data: encodePNG(t)}, "image/png"},
		{"gif", models.ImageFile{Name: "anim.gif", Data: encodeGIF(t)}, "image/gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, err := validator.ValidateImageFile(tt.file)
			if err != nil {
				t.Fatalf("Expected %s to pass validation, got error: %v", tt.file.Name, err)
			}
			if contentType != tt.wantType {
				t.Errorf("Expected content type %s, got %s", tt.wantType, contentType)
			}
		})
	}
}

func TestValidateImageFile_Invalid(t *testing.T) {
	validator := NewUploadValidator()

	tests := []struct {
		name        string
		file        models.ImageFile
		wantMessage string
	}{
		{"empty name", models.ImageFile{Name: "  ", Data: encodePNG(t)}, "Filename cannot be empty"},
		{"empty file", models.ImageFile{Name: "a.png"}, "File is empty"},
		{"no extension", models.ImageFile{Name: "README", Data: encodePNG(t)}, "File type not allowed"},
		{"wrong extension", models.ImageFile{Name: "doc.pdf", Data: encodePNG(t)}, "File type not allowed"},
		{"content mismatch", models.ImageFile{Name: "fake.png", Data: []byte("plain text, not an image")}, "File content is not a supported image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateImageFile(tt.file)
			if err == nil {
				t.Fatalf("Expected %q to fail validation", tt.file.Name)
			}
			appErr, ok := err.(*apperrors.AppError)
			if !ok {
				t.Fatalf("Expected AppError, got: %T", err)
			}
			if appErr.Type != apperrors.ErrorTypeValidation {
				t.Errorf("Expected validation error, got %s", appErr.Type)
			}
			if appErr.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, appErr.Message)
			}
		})
	}
}

func TestValidateImageFile_MaxSize(t *testing.T) {
	data := encodePNG(t)
	validator := NewUploadValidatorWithOptions([]string{"png"}, []string{"image/png"}, int64(len(data)-1))

	if _, err := validator.ValidateImageFile(models.ImageFile{Name: "a.png", Data: data}); err == nil {
		t.Error("Expected oversized file to fail validation")
	}

	validator = NewUploadValidatorWithOptions([]string{"png"}, []string{"image/png"}, 0)
	if _, err := validator.ValidateImageFile(models.ImageFile{Name: "a.png", Data: data}); err != nil {
		t.Errorf("Expected zero max size to disable the check, got: %v", err)
	}
}
