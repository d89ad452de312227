package render

import (
	"html/template"
	"sync"

	"go-vision-console/pkg/models"
)

// Result is one rendered fragment in the results area
type Result struct {
	Index    int
	Filename string
	Kind     models.QueryType
	HTML     template.HTML
	Payload  models.Payload
	ChartURL string
}

// ResultsArea is the append-only list of rendered results for one page session
type ResultsArea struct {
	mu      sync.RWMutex
	visible bool
	results []Result
}

func NewResultsArea() *ResultsArea {
	return &ResultsArea{}
}

// Show reveals the results area
func (a *ResultsArea) Show() {
	a.mu.Lock()
	a.visible = true
	a.mu.Unlock()
}

func (a *ResultsArea) Visible() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.visible
}

func (a *ResultsArea) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.results)
}

// Results returns a snapshot in append order
func (a *ResultsArea) Results() []Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Result, len(a.results))
	copy(out, a.results)
	return out
}

// Result returns the result at index
func (a *ResultsArea) Result(index int) (Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if index < 0 || index >= len(a.results) {
		return Result{}, false
	}
	return a.results[index], true
}

// HTML concatenates every fragment in order
func (a *ResultsArea) HTML() template.HTML {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out string
	for _, r := range a.results {
		out += string(r.HTML)
	}
	return template.HTML(out)
}

func (a *ResultsArea) appendWith(build func(index int) (Result, error)) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	result, err := build(len(a.results))
	if err != nil {
		return Result{}, err
	}
	a.results = append(a.results, result)
	return result, nil
}
