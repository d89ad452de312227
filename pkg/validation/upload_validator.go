package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "go-vision-console/internal/errors"
	"go-vision-console/pkg/models"

	"github.com/gabriel-vasile/mimetype"
)

// UploadValidator handles validation of uploaded image files
type UploadValidator struct {
	allowedExtensions   []string
	allowedContentTypes []string
	maxSize             int64
}

// NewUploadValidator creates a validator accepting png, jpg/jpeg and gif images of any size
func NewUploadValidator() *UploadValidator {
	return &UploadValidator{
		allowedExtensions:   []string{"png", "jpg", "jpeg", "gif"},
		allowedContentTypes: []string{"image/png", "image/jpeg", "image/gif"},
	}
}

// NewUploadValidatorWithOptions creates an upload validator with custom options.
// A maxSize of zero disables the size check.
func NewUploadValidatorWithOptions(extensions []string, contentTypes []string, maxSize int64) *UploadValidator {
	return &UploadValidator{
		allowedExtensions:   extensions,
		allowedContentTypes: contentTypes,
		maxSize:             maxSize,
	}
}

// ValidateImageFile checks the filename and the sniffed content of an upload.
// It returns the detected content type on success.
func (v *UploadValidator) ValidateImageFile(file models.ImageFile) (string, error) {
	if strings.TrimSpace(file.Name) == "" {
		return "", apperrors.NewValidationError("Filename cannot be empty", nil)
	}

	if len(file.Data) == 0 {
		return "", apperrors.NewValidationError("File is empty", nil)
	}

	if v.maxSize > 0 && file.Size() > v.maxSize {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("File exceeds the %d byte limit", v.maxSize), nil)
	}

	if !v.isExtensionAllowed(file.Name) {
		return "", apperrors.NewValidationError("File type not allowed", nil)
	}

	detected := mimetype.Detect(file.Data)
	if !v.isContentTypeAllowed(detected) {
		return "", apperrors.NewValidationError(
			"File content is not a supported image",
			fmt.Errorf("detected content type %s", detected.String()))
	}

	return detected.String(), nil
}

// isExtensionAllowed checks the lower-cased extension against the allow-list
func (v *UploadValidator) isExtensionAllowed(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range v.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (v *UploadValidator) isContentTypeAllowed(detected *mimetype.MIME) bool {
	for _, allowed := range v.allowedContentTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
