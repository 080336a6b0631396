package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Find when no element matches the xpath.
var ErrNotFound = errors.New("element not found")

// Surface identifies the window/frame that currently receives commands.
// It is opaque to callers and only useful for Restore.
type Surface interface{}

// Element is a node of the page the driver currently focuses.
type Element interface {
	Text() (string, error)
	Attr(name string) (string, error)
	// Value returns the live value property of an input.
	Value() (string, error)
	Click() error
	// Fill replaces the current content of an input with text.
	Fill(text string) error
	// SelectValue selects the option of a <select> with the given value.
	SelectValue(value string) error
	// SelectedText returns the text of the first selected option of a <select>.
	SelectedText() (string, error)
	Find(xpath string) (Element, error)
	FindAll(xpath string) ([]Element, error)
}

// Driver is the browser capability the portal client is built on.
// Only one surface is active at a time.
type Driver interface {
	// Navigate loads url in the primary window and focuses its top document.
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, xpath string) (Element, error)
	FindAll(ctx context.Context, xpath string) ([]Element, error)
	// WaitVisible polls until an element matching xpath is visible or timeout elapses.
	WaitVisible(ctx context.Context, xpath string, timeout time.Duration) (Element, error)
	// Exec runs a JS function expression on the active surface with args.
	Exec(ctx context.Context, script string, args ...any) error
	// EnterFrames descends from the top document of the active window
	// through frames addressed by their name attribute.
	EnterFrames(ctx context.Context, names ...string) error
	FocusNewestWindow(ctx context.Context) error
	FocusPrimaryWindow(ctx context.Context) error
	Surface() Surface
	Restore(ctx context.Context, s Surface) error
	Close() error
}

// Launcher opens a fresh driver, one per session.
type Launcher interface {
	Launch(ctx context.Context) (Driver, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Driver, error)

func (f LauncherFunc) Launch(ctx context.Context) (Driver, error) { return f(ctx) }

// WithSurface runs fn and restores the surface that was active before,
// whatever fn returned.
func WithSurface(ctx context.Context, d Driver, fn func() error) (err error) {
	prev := d.Surface()
	defer func() {
		if rerr := d.Restore(ctx, prev); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}
