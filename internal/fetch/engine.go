package fetch

import (
	"context"
	"log/slog"
)

// State is a step of a single FetchAndExtract call.
type State int

const (
	StateIdle State = iota
	StateDownloading
	StateDownloaded
	StateExtracting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDownloading:
		return "downloading"
	case StateDownloaded:
		return "downloaded"
	case StateExtracting:
		return "extracting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StateHook is called on every state transition.
type StateHook func(from, to State)

// Result describes a successful FetchAndExtract call.
type Result struct {
	URL         string
	Destination string
	// Bytes is the size of the downloaded archive.
	Bytes   int
	Summary *Summary
}

// Engine downloads an archive and extracts it in one pass.
type Engine struct {
	downloader *Downloader
	extractor  *Extractor
	stateHook  StateHook
	logger     *slog.Logger
	state      State
}

// NewEngine creates an Engine from its two phases.
func NewEngine(d *Downloader, e *Extractor) *Engine {
	if d == nil {
		d = NewDownloader()
	}
	if e == nil {
		e = NewExtractor()
	}
	return &Engine{
		downloader: d,
		extractor:  e,
		logger:     slog.Default(),
	}
}

// SetStateHook sets the transition callback.
func (g *Engine) SetStateHook(hook StateHook) {
	g.stateHook = hook
}

// SetLogger sets the logger for the engine and both phases.
func (g *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	g.logger = l
	g.downloader.SetLogger(l)
	g.extractor.SetLogger(l)
}

// State returns the state reached by the last call.
func (g *Engine) State() State {
	return g.state
}

// FetchAndExtract downloads url fully into memory, then extracts it beneath dest.
// A download failure leaves nothing on disk. An extraction failure may leave
// the entries written before it in place.
func (g *Engine) FetchAndExtract(ctx context.Context, url, dest string) (*Result, error) {
	g.state = StateIdle
	g.transition(StateDownloading)

	data, err := g.downloader.Fetch(ctx, url)
	if err != nil {
		g.transition(StateFailed)
		return nil, err
	}
	g.transition(StateDownloaded)

	g.transition(StateExtracting)
	summary, err := g.extractor.Extract(ctx, data, dest)
	if err != nil {
		g.transition(StateFailed)
		return nil, err
	}
	g.transition(StateDone)

	return &Result{
		URL:         url,
		Destination: dest,
		Bytes:       len(data),
		Summary:     summary,
	}, nil
}

func (g *Engine) transition(to State) {
	from := g.state
	g.state = to
	g.logger.Debug("fetch state", "from", from, "to", to)
	if g.stateHook != nil {
		g.stateHook(from, to)
	}
}
