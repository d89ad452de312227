package session

import (
	"context"
	"sync"
	"time"

	"go-vision-console/internal/client"
	"go-vision-console/internal/dropzone"
	apperrors "go-vision-console/internal/errors"
	"go-vision-console/internal/notify"
	"go-vision-console/internal/observer"
	"go-vision-console/internal/preview"
	"go-vision-console/internal/render"
	"go-vision-console/internal/repository"
	"go-vision-console/internal/submit"
	"go-vision-console/pkg/models"
	"go-vision-console/pkg/validation"
)

// MsgImageDeleted is shown after the preview is cleared
const MsgImageDeleted = "Image deleted successfully"

// Dependencies are shared by every session of a registry
type Dependencies struct {
	Client        client.AnalysisClient
	Events        observer.Subject
	Validator     *validation.UploadValidator
	NotifyOptions []notify.Option
}

// Session owns the whole pipeline state of one page session
type Session struct {
	ID        string
	CreatedAt time.Time

	Store      repository.ImageStore
	Previewer  *preview.Previewer
	DropZone   *dropzone.DropZone
	Notifier   *notify.Notifier
	Results    *render.ResultsArea
	Controller *submit.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(id string, deps Dependencies, now time.Time) *Session {
	store := repository.NewImageStore()
	previewer := preview.NewPreviewer(store, deps.Validator)
	notifier := notify.NewNotifier(deps.NotifyOptions...)
	results := render.NewResultsArea()

	opts := []submit.Option{submit.WithSessionID(id)}
	if deps.Events != nil {
		opts = append(opts, submit.WithEvents(deps.Events))
	}

	return &Session{
		ID:         id,
		CreatedAt:  now,
		Store:      store,
		Previewer:  previewer,
		DropZone:   dropzone.New(previewer),
		Notifier:   notifier,
		Results:    results,
		Controller: submit.NewController(store, deps.Client, render.NewRenderer(results), notifier, opts...),
		lastSeen:   now,
	}
}

// Stage forwards the first file of a drop or picker selection to the previewer.
// Rejected files are reported through the notifier as well as returned.
func (s *Session) Stage(ctx context.Context, files []models.ImageFile, dropped bool) (*models.StagedImage, error) {
	var (
		img *models.StagedImage
		err error
	)
	if dropped {
		img, err = s.DropZone.Drop(ctx, files)
	} else {
		img, err = s.DropZone.Pick(ctx, files)
	}
	if err != nil {
		s.Notifier.Notify(apperrors.UserMessage(err), notify.SeverityError)
		return nil, err
	}
	return img, nil
}

// ClearPreview hides the preview and unstages the image it showed
func (s *Session) ClearPreview() (string, bool) {
	filename, ok := s.Previewer.Clear()
	s.Notifier.Notify(MsgImageDeleted, notify.SeveritySuccess)
	return filename, ok
}

// RemoveImage unstages filename, hiding the preview if it shows that image
func (s *Session) RemoveImage(filename string) error {
	if _, ok := s.Store.Get(filename); !ok {
		return apperrors.NewNotFoundError("image not staged: "+filename, nil)
	}
	s.Store.Remove(filename)
	s.Previewer.Forget(filename)
	s.Notifier.Notify(MsgImageDeleted, notify.SeveritySuccess)
	return nil
}

// Submit runs a submission with the session's controller
func (s *Session) Submit(ctx context.Context, textInput string, qt models.QueryType) submit.Outcome {
	return s.Controller.Submit(ctx, textInput, qt)
}

// Touch marks the session as used now
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close stops pending notification timers and drops staged images
func (s *Session) Close() {
	s.Notifier.Close()
	s.Store.Clear()
}
