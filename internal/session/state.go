package session

import (
	"go-vision-console/internal/notify"
	"go-vision-console/internal/preview"
	"go-vision-console/internal/submit"
)

// ImageView describes one staged image
type ImageView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        string `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// ResultView is one rendered result fragment
type ResultView struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
	HTML     string `json:"html"`
	ChartURL string `json:"chart_url,omitempty"`
}

// State is the full page state of a session as served to the browser
type State struct {
	ID             string                `json:"id"`
	Images         []ImageView           `json:"images"`
	Preview        preview.Panel         `json:"preview"`
	DropZoneActive bool                  `json:"dropzone_active"`
	Busy           submit.BusyState      `json:"busy"`
	ResultsVisible bool                  `json:"results_visible"`
	Results        []ResultView          `json:"results"`
	Notifications  []notify.Notification `json:"notifications"`
}

// State snapshots the session for rendering
func (s *Session) State() State {
	entries := s.Store.Entries()
	images := make([]ImageView, 0, len(entries))
	for _, e := range entries {
		images = append(images, ImageView{
			Filename:    e.Filename,
			ContentType: e.File.ContentType,
			Size:        preview.FormatSize(e.File.Size()),
			Width:       e.Width,
			Height:      e.Height,
		})
	}

	results := s.Results.Results()
	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		views = append(views, ResultView{
			Index:    r.Index,
			Filename: r.Filename,
			Kind:     string(r.Kind),
			HTML:     string(r.HTML),
			ChartURL: r.ChartURL,
		})
	}

	return State{
		ID:             s.ID,
		Images:         images,
		Preview:        s.Previewer.Panel(),
		DropZoneActive: s.DropZone.Active(),
		Busy:           s.Controller.Busy(),
		ResultsVisible: s.Results.Visible(),
		Results:        views,
		Notifications:  s.Notifier.Active(),
	}
}
