package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type RodConfig struct {
	Headless bool
	// Bin is an explicit Chromium binary; empty lets the launcher download one.
	Bin string
	// ControlURL attaches to an already running browser instead of launching.
	ControlURL string
	// FrameTimeout bounds frame lookups and popup discovery.
	FrameTimeout time.Duration
}

type RodLauncher struct {
	cfg RodConfig
	log *slog.Logger
}

func NewRodLauncher(cfg RodConfig, log *slog.Logger) *RodLauncher {
	if cfg.FrameTimeout <= 0 {
		cfg.FrameTimeout = 10 * time.Second
	}
	return &RodLauncher{cfg: cfg, log: log}
}

func (l *RodLauncher) Launch(ctx context.Context) (Driver, error) {
	var ln *launcher.Launcher
	controlURL := l.cfg.ControlURL
	if controlURL == "" {
		ln = launcher.New().Headless(l.cfg.Headless).Leakless(true)
		if l.cfg.Bin != "" {
			ln = ln.Bin(l.cfg.Bin)
		}
		u, err := ln.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if ln != nil {
			ln.Cleanup()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		if ln != nil {
			ln.Cleanup()
		}
		return nil, fmt.Errorf("open page: %w", err)
	}
	l.log.Debug("browser launched", "control_url", controlURL)

	return &rodDriver{
		browser:  b,
		launcher: ln,
		timeout:  l.cfg.FrameTimeout,
		primary:  page,
		window:   page,
		current:  page,
		seen:     []proto.TargetTargetID{page.TargetID},
	}, nil
}

type rodDriver struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration

	primary *rod.Page
	window  *rod.Page // top document of the focused window
	current *rod.Page // focused window or one of its frames

	// window targets in the order they were first observed
	seen []proto.TargetTargetID
}

type rodSurface struct {
	window  *rod.Page
	current *rod.Page
}

func (d *rodDriver) Navigate(ctx context.Context, url string) error {
	d.window, d.current = d.primary, d.primary
	p := d.primary.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (d *rodDriver) Find(ctx context.Context, xpath string) (Element, error) {
	el, err := d.current.Context(ctx).Sleeper(rod.NotFoundSleeper).ElementX(xpath)
	if err != nil {
		return nil, wrapFind(xpath, err)
	}
	return &rodElement{el: el}, nil
}

func (d *rodDriver) FindAll(ctx context.Context, xpath string) ([]Element, error) {
	els, err := d.current.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", xpath, err)
	}
	return wrapAll(els), nil
}

func (d *rodDriver) WaitVisible(ctx context.Context, xpath string, timeout time.Duration) (Element, error) {
	p := d.current.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.ElementX(xpath)
	if err != nil {
		return nil, fmt.Errorf("wait %s: %w", xpath, err)
	}
	if err := el.WaitVisible(); err != nil {
		return nil, fmt.Errorf("wait visible %s: %w", xpath, err)
	}
	return &rodElement{el: el.Context(ctx)}, nil
}

func (d *rodDriver) Exec(ctx context.Context, script string, args ...any) error {
	if _, err := d.current.Context(ctx).Eval(script, args...); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

func (d *rodDriver) EnterFrames(ctx context.Context, names ...string) error {
	cur := d.window
	for _, name := range names {
		xp := "//frame[@name=" + Literal(name) + "] | //iframe[@name=" + Literal(name) + "]"
		p := cur.Context(ctx).Timeout(d.timeout)
		fe, err := p.ElementX(xp)
		if err != nil {
			p.CancelTimeout()
			return fmt.Errorf("frame %s: %w", name, err)
		}
		fr, err := fe.Frame()
		p.CancelTimeout()
		if err != nil {
			return fmt.Errorf("enter frame %s: %w", name, err)
		}
		cur = fr
	}
	d.current = cur
	return nil
}

func (d *rodDriver) FocusNewestWindow(ctx context.Context) error {
	deadline := time.Now().Add(d.timeout)
	for {
		pages, err := d.browser.Context(ctx).Pages()
		if err != nil {
			return fmt.Errorf("list windows: %w", err)
		}
		byID := make(map[proto.TargetTargetID]*rod.Page, len(pages))
		fresh := false
		for _, p := range pages {
			byID[p.TargetID] = p
			if !d.known(p.TargetID) {
				d.seen = append(d.seen, p.TargetID)
				fresh = true
			}
		}
		if fresh || time.Now().After(deadline) {
			for i := len(d.seen) - 1; i > 0; i-- {
				if p, ok := byID[d.seen[i]]; ok {
					d.window, d.current = p, p
					return nil
				}
			}
			return errors.New("no popup window open")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (d *rodDriver) FocusPrimaryWindow(_ context.Context) error {
	d.window, d.current = d.primary, d.primary
	return nil
}

func (d *rodDriver) Surface() Surface {
	return rodSurface{window: d.window, current: d.current}
}

func (d *rodDriver) Restore(_ context.Context, s Surface) error {
	rs, ok := s.(rodSurface)
	if !ok {
		return fmt.Errorf("foreign surface %T", s)
	}
	d.window, d.current = rs.window, rs.current
	return nil
}

func (d *rodDriver) Close() error {
	err := d.browser.Close()
	if d.launcher != nil {
		d.launcher.Cleanup()
	}
	return err
}

func (d *rodDriver) known(id proto.TargetTargetID) bool {
	for _, s := range d.seen {
		if s == id {
			return true
		}
	}
	return false
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) { return e.el.Text() }

func (e *rodElement) Attr(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *rodElement) Value() (string, error) {
	v, err := e.el.Property("value")
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Fill(text string) error {
	if _, err := e.el.Eval(`function () { this.value = '' }`); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return e.el.Input(text)
}

func (e *rodElement) SelectValue(value string) error {
	return e.el.Select([]string{fmt.Sprintf("option[value=%q]", value)}, true, rod.SelectorTypeCSSSector)
}

func (e *rodElement) SelectedText() (string, error) {
	res, err := e.el.Eval(`function () {
		var o = this.options[this.selectedIndex];
		return o ? o.text : '';
	}`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Find(xpath string) (Element, error) {
	el, err := e.el.Sleeper(rod.NotFoundSleeper).ElementX(xpath)
	if err != nil {
		return nil, wrapFind(xpath, err)
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) FindAll(xpath string) ([]Element, error) {
	els, err := e.el.ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", xpath, err)
	}
	return wrapAll(els), nil
}

func wrapFind(xpath string, err error) error {
	var nf *rod.ElementNotFoundError
	if errors.As(err, &nf) {
		return fmt.Errorf("%s: %w", xpath, ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", xpath, err)
}

func wrapAll(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}
