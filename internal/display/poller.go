package display

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/rook-computer/epaper/internal/client"
	"github.com/rook-computer/epaper/internal/gateway"
	"github.com/rook-computer/epaper/internal/render"
	"github.com/rook-computer/epaper/internal/state"
)

const DefaultInterval = 30 * time.Second

// Fetcher is the part of client.Client the poller needs.
type Fetcher interface {
	Fetch(ctx context.Context, etag string) (client.FetchResult, error)
}

// Poller keeps a Sink showing the server's current frame. It sends the last
// seen ETag with every fetch and only calls Show when the content changes.
type Poller struct {
	Client      Fetcher
	Sink        Sink
	State       *state.Store
	Logger      sysLogger
	Interval    time.Duration
	Placeholder render.PlaceholderOptions
	Now         func() time.Time

	// serverTag is sent as If-None-Match; fingerprint identifies what is on
	// screen even when the server sends no tags.
	serverTag        string
	fingerprint      string
	placeholderShown bool
}

func (p *Poller) defaults() {
	if p.Logger == nil {
		p.Logger = noopLogger{}
	}
	if p.State == nil {
		p.State = state.NewStore()
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.Now == nil {
		p.Now = time.Now
	}
}

// Run polls immediately and then every Interval until ctx is done. A failed
// poll is logged and left for the next tick.
func (p *Poller) Run(ctx context.Context) error {
	p.defaults()
	p.Logger.Infof("poller", "polling every %s", p.Interval)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.Logger.Errorf("poller", "poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce performs a single conditional fetch and updates the sink and state.
// A poll cut short by ctx leaves the state untouched.
func (p *Poller) PollOnce(ctx context.Context) error {
	p.defaults()
	if err := ctx.Err(); err != nil {
		return err
	}
	now := p.Now()

	res, err := p.Client.Fetch(ctx, p.serverTag)
	if errors.Is(err, client.ErrNoImage) {
		return p.showPlaceholder(ctx, now)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		p.State.MarkError(err, now)
		return err
	}
	if res.NotModified {
		p.State.MarkChecked(now)
		return nil
	}

	fingerprint := res.ETag
	if fingerprint == "" {
		fingerprint = gateway.ComputeETag(res.Data)
	}
	p.serverTag = res.ETag
	if fingerprint == p.fingerprint {
		p.State.MarkChecked(now)
		return nil
	}

	frame, err := render.Unpack(res.Data, render.Width, render.Height)
	if err != nil {
		p.State.MarkError(err, now)
		return errors.Wrap(err, "decode frame")
	}
	if err := p.Sink.Show(ctx, frame); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		p.State.MarkError(err, now)
		return errors.Wrap(err, "show frame")
	}

	p.fingerprint = fingerprint
	p.placeholderShown = false
	p.State.MarkShown(fingerprint, now)
	p.Logger.Infof("poller", "showing %s", fingerprint)
	return nil
}

func (p *Poller) showPlaceholder(ctx context.Context, now time.Time) error {
	p.serverTag = ""
	p.fingerprint = ""
	if p.placeholderShown {
		p.State.MarkEmpty(now)
		return nil
	}

	frame, err := render.Placeholder(p.Placeholder)
	if err != nil {
		p.State.MarkError(err, now)
		return errors.Wrap(err, "render placeholder")
	}
	if err := p.Sink.Show(ctx, frame); err != nil {
		p.State.MarkError(err, now)
		return errors.Wrap(err, "show placeholder")
	}
	p.placeholderShown = true
	p.State.MarkEmpty(now)
	p.Logger.Infof("poller", "no image on server, placeholder shown")
	return nil
}
