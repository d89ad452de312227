package submit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go-vision-console/internal/client"
	apperrors "go-vision-console/internal/errors"
	"go-vision-console/internal/logger"
	"go-vision-console/internal/notify"
	"go-vision-console/internal/observer"
	"go-vision-console/internal/render"
	"go-vision-console/internal/repository"
	"go-vision-console/pkg/models"

	"github.com/sirupsen/logrus"
)

// User facing messages
const (
	MsgTextRequired    = "Please enter text to generate an image."
	MsgImagesRequired  = "Please upload at least one image"
	MsgAnalysisFailed  = "An error occurred during analysis"
	MsgAlreadyRunning  = "An analysis is already in progress"
	MsgInvalidQuery    = "Please choose a valid analysis type"
	backendErrorPrefix = "Error: "
)

// Trigger labels
const (
	LabelAnalyze    = "Analyze Image"
	LabelGenerate   = "Generate Image"
	LabelAnalyzing  = "Analyzing..."
	LabelGenerating = "Generating..."
)

// Notifier surfaces messages to the user
type Notifier interface {
	Notify(message string, severity notify.Severity) notify.Notification
}

// Trigger is the state of the submit button
type Trigger struct {
	Disabled bool   `json:"disabled"`
	Label    string `json:"label"`
}

// BusyState is the loading indicator plus the trigger
type BusyState struct {
	Loading bool    `json:"loading"`
	Trigger Trigger `json:"trigger"`
}

// Outcome summarises one Submit call
type Outcome struct {
	Requests int  `json:"requests"`
	Rendered int  `json:"rendered"`
	Failed   int  `json:"failed"`
	Aborted  bool `json:"aborted"`
	Rejected bool `json:"rejected"`
}

// Controller runs submissions for one page session: one backend request per
// staged image, strictly in order, with results handed to the renderer.
type Controller struct {
	store     repository.ImageStore
	client    client.AnalysisClient
	renderer  *render.Renderer
	notifier  Notifier
	events    observer.Subject
	sessionID string

	running atomic.Bool

	mu   sync.RWMutex
	busy BusyState
}

// Option configures a Controller
type Option func(*Controller)

// WithEvents publishes submission events to subject
func WithEvents(subject observer.Subject) Option {
	return func(c *Controller) { c.events = subject }
}

// WithSessionID tags events and logs with the owning session
func WithSessionID(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

func NewController(
	store repository.ImageStore,
	analysisClient client.AnalysisClient,
	renderer *render.Renderer,
	notifier Notifier,
	opts ...Option,
) *Controller {
	c := &Controller{
		store:    store,
		client:   analysisClient,
		renderer: renderer,
		notifier: notifier,
		busy:     idleState(models.QueryGeneral),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy returns the current loading indicator and trigger state
func (c *Controller) Busy() BusyState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy
}

// IdleLabel is the trigger label shown while nothing runs
func IdleLabel(qt models.QueryType) string {
	if qt == models.QueryTextToImage {
		return LabelGenerate
	}
	return LabelAnalyze
}

// BusyLabel is the trigger label shown while a run is in progress
func BusyLabel(qt models.QueryType) string {
	if qt == models.QueryTextToImage {
		return LabelGenerating
	}
	return LabelAnalyzing
}

// Submit validates the inputs, then sends one request per staged image
// (or a single text-only request for text_to_image). Backend-reported errors
// are notified and skipped; a transport failure aborts the remaining units.
// No error escapes: everything is reported through the notifier.
func (c *Controller) Submit(ctx context.Context, textInput string, qt models.QueryType) Outcome {
	if !c.running.CompareAndSwap(false, true) {
		c.notifier.Notify(MsgAlreadyRunning, notify.SeverityInfo)
		return Outcome{Rejected: true}
	}
	defer c.running.Store(false)

	units, err := c.plan(textInput, qt)
	if err != nil {
		c.notifier.Notify(apperrors.UserMessage(err), notify.SeverityError)
		return Outcome{}
	}

	c.setBusy(qt)
	defer c.setIdle(qt)

	start := time.Now()
	c.publish(ctx, observer.SubmissionEvent{
		EventType: observer.SubmitStarted,
		QueryType: string(qt),
		Metadata:  map[string]interface{}{"units": len(units)},
	})

	var out Outcome
	for _, img := range units {
		req := models.AnalysisRequest{TextInput: textInput, QueryType: qt, Image: img}
		filename := ""
		if img != nil {
			filename = img.Filename
		}

		out.Requests++
		unitStart := time.Now()
		resp, err := c.runUnit(ctx, req, filename)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"session_id": c.sessionID,
				"query_type": qt,
				"filename":   filename,
			}).Error("An error occurred during analysis")

			c.notifier.Notify(MsgAnalysisFailed, notify.SeverityError)
			c.publish(ctx, observer.SubmissionEvent{
				EventType:    observer.SubmitAborted,
				QueryType:    string(qt),
				Filename:     filename,
				Duration:     time.Since(unitStart),
				ErrorMessage: err.Error(),
			})
			out.Aborted = true
			break
		}

		if resp.IsError() {
			logger.WithFields(logrus.Fields{
				"session_id": c.sessionID,
				"query_type": qt,
				"filename":   filename,
				"error":      resp.Err,
			}).Error("Analysis backend reported an error")

			c.notifier.Notify(backendErrorPrefix+resp.Err, notify.SeverityError)
			c.publish(ctx, observer.SubmissionEvent{
				EventType:    observer.UnitFailed,
				QueryType:    string(qt),
				Filename:     filename,
				Duration:     time.Since(unitStart),
				ErrorMessage: resp.Err,
			})
			out.Failed++
			continue
		}

		out.Rendered++
		c.publish(ctx, observer.SubmissionEvent{
			EventType: observer.UnitRendered,
			QueryType: string(qt),
			Filename:  filename,
			Duration:  time.Since(unitStart),
			Success:   true,
		})
	}

	c.publish(ctx, observer.SubmissionEvent{
		EventType: observer.SubmitFinished,
		QueryType: string(qt),
		Duration:  time.Since(start),
		Success:   !out.Aborted,
		Metadata: map[string]interface{}{
			"requests": out.Requests,
			"rendered": out.Rendered,
			"failed":   out.Failed,
		},
	})
	return out
}

// plan checks preconditions and returns the units to send; nil means text-only
func (c *Controller) plan(textInput string, qt models.QueryType) ([]*models.StagedImage, error) {
	if !qt.Valid() {
		return nil, apperrors.NewValidationError(MsgInvalidQuery, nil)
	}

	if !qt.RequiresImage() {
		if textInput == "" {
			return nil, apperrors.NewValidationError(MsgTextRequired, nil)
		}
		return []*models.StagedImage{nil}, nil
	}

	entries := c.store.Entries()
	if len(entries) == 0 {
		return nil, apperrors.NewValidationError(MsgImagesRequired, nil)
	}
	units := make([]*models.StagedImage, len(entries))
	for i := range entries {
		units[i] = &entries[i]
	}
	return units, nil
}

// runUnit sends one request and renders a successful reply. Panics count as
// transport failures so the deferred cleanup in Submit still runs.
func (c *Controller) runUnit(ctx context.Context, req models.AnalysisRequest, filename string) (resp *models.AnalysisResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = apperrors.NewInternalError("analysis unit panicked", fmt.Errorf("%v", r))
		}
	}()

	resp, err = c.client.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, apperrors.NewProcessingError("empty analysis response", nil)
	}
	if resp.IsError() {
		return resp, nil
	}

	if _, err := c.renderer.Render(resp, filename); err != nil {
		return nil, apperrors.NewInternalError("failed to render result", err)
	}
	c.renderer.Area().Show()
	return resp, nil
}

func (c *Controller) setBusy(qt models.QueryType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = BusyState{
		Loading: true,
		Trigger: Trigger{Disabled: true, Label: BusyLabel(qt)},
	}
}

func (c *Controller) setIdle(qt models.QueryType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = idleState(qt)
}

func idleState(qt models.QueryType) BusyState {
	return BusyState{Trigger: Trigger{Label: IdleLabel(qt)}}
}

func (c *Controller) publish(ctx context.Context, event observer.SubmissionEvent) {
	if c.events == nil {
		return
	}
	event.SessionID = c.sessionID
	c.events.NotifyObservers(ctx, event)
}
