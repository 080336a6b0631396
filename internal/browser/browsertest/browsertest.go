// Package browsertest provides a scripted in-memory browser.Driver.
//
// The fake keeps a single xpath -> nodes table for whatever page is loaded;
// tests swap the table from navigation or click hooks to model page changes.
// Window and frame focus is tracked so tests can assert on it, but it does
// not partition the table.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/portal-bot/internal/browser"
)

type Call struct {
	Script string
	Args   []any
}

type focus struct {
	window int
	frames string
}

type Driver struct {
	nodes map[string][]*Node

	// Popups is the number of secondary windows currently open.
	Popups int
	// OnNavigate hooks run after Navigate for URLs starting with the key.
	OnNavigate map[string]func(d *Driver)
	// FailFind forces Find/WaitVisible on the xpath to fail with a non
	// not-found error, modelling a broken driver connection.
	FailFind map[string]error
	ExecErr  error

	Visited []string
	Calls   []Call
	Closed  bool

	cur focus
}

func New() *Driver {
	return &Driver{
		nodes:      map[string][]*Node{},
		OnNavigate: map[string]func(d *Driver){},
		FailFind:   map[string]error{},
	}
}

// Set replaces the nodes matched by xpath.
func (d *Driver) Set(xpath string, nodes ...*Node) *Driver {
	for _, n := range nodes {
		n.d = d
	}
	d.nodes[xpath] = nodes
	return d
}

func (d *Driver) Remove(xpath string) { delete(d.nodes, xpath) }

// Node returns the first node registered for xpath or nil.
func (d *Driver) Node(xpath string) *Node {
	if ns := d.nodes[xpath]; len(ns) > 0 {
		return ns[0]
	}
	return nil
}

// Focus describes the active surface as "window/frame/path".
func (d *Driver) Focus() string {
	return fmt.Sprintf("%d/%s", d.cur.window, d.cur.frames)
}

func (d *Driver) Navigate(_ context.Context, url string) error {
	d.Visited = append(d.Visited, url)
	d.cur = focus{}
	for prefix, fn := range d.OnNavigate {
		if strings.HasPrefix(url, prefix) {
			fn(d)
		}
	}
	return nil
}

func (d *Driver) Find(_ context.Context, xpath string) (browser.Element, error) {
	if err := d.FailFind[xpath]; err != nil {
		return nil, err
	}
	ns := d.nodes[xpath]
	if len(ns) == 0 {
		return nil, fmt.Errorf("%s: %w", xpath, browser.ErrNotFound)
	}
	return ns[0], nil
}

func (d *Driver) FindAll(_ context.Context, xpath string) ([]browser.Element, error) {
	return elements(d.nodes[xpath]), nil
}

func (d *Driver) WaitVisible(ctx context.Context, xpath string, _ time.Duration) (browser.Element, error) {
	el, err := d.Find(ctx, xpath)
	if errors.Is(err, browser.ErrNotFound) {
		return nil, fmt.Errorf("wait %s: %w", xpath, context.DeadlineExceeded)
	}
	return el, err
}

func (d *Driver) Exec(_ context.Context, script string, args ...any) error {
	if d.ExecErr != nil {
		return d.ExecErr
	}
	d.Calls = append(d.Calls, Call{Script: script, Args: args})
	return nil
}

func (d *Driver) EnterFrames(_ context.Context, names ...string) error {
	d.cur.frames = strings.Join(names, "/")
	return nil
}

func (d *Driver) FocusNewestWindow(_ context.Context) error {
	if d.Popups == 0 {
		return errors.New("no popup window open")
	}
	d.cur = focus{window: d.Popups}
	return nil
}

func (d *Driver) FocusPrimaryWindow(_ context.Context) error {
	d.cur = focus{}
	return nil
}

func (d *Driver) Surface() browser.Surface { return d.cur }

func (d *Driver) Restore(_ context.Context, s browser.Surface) error {
	f, ok := s.(focus)
	if !ok {
		return fmt.Errorf("foreign surface %T", s)
	}
	d.cur = f
	return nil
}

func (d *Driver) Close() error {
	d.Closed = true
	return nil
}

// Launcher hands out the same fake driver and counts launches.
type Launcher struct {
	Driver   *Driver
	Launches int
	Err      error
}

func (l *Launcher) Launch(context.Context) (browser.Driver, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.Launches++
	l.Driver.Closed = false
	return l.Driver, nil
}

func elements(ns []*Node) []browser.Element {
	out := make([]browser.Element, 0, len(ns))
	for _, n := range ns {
		out = append(out, n)
	}
	return out
}
