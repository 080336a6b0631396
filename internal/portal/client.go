package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Spok95/portal-bot/internal/browser"
	"github.com/Spok95/portal-bot/internal/infra/metrics"
)

// ShippingProfile is one carrier/billing choice of the checkout form.
type ShippingProfile struct {
	Method   string // zFreightForwarder option value
	Incoterm string // incoterms1 option value
	Account  string // freight account, incoterms2
	Comment  string // free text, textZ004
}

type Config struct {
	BaseURL        string
	Username       string
	Password       string
	CustomerNumber string
	// HomePath is the framed shop page order entry starts from.
	HomePath     string
	LoginTimeout time.Duration
	WaitTimeout  time.Duration
	LineCapacity int

	Phone string
	Fax   string
	// A shipment is heavy when any single warehouse ships at least this weight.
	HeavyThreshold float64
	Heavy          ShippingProfile
	Light          ShippingProfile
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.HomePath == "" {
		c.HomePath = "/b2b_altra/b2b/startapplication.do"
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 15 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 10 * time.Second
	}
	if c.LineCapacity <= 0 {
		c.LineCapacity = 15
	}
	if c.HeavyThreshold <= 0 {
		c.HeavyThreshold = 70
	}
	return c
}

// LeadCalendar turns a lead time in business days into a date.
type LeadCalendar interface {
	LeadDate(days int) time.Time
}

// Client drives the portal through a single browser session. It is not safe
// for concurrent use; only Ready may be called from other goroutines.
type Client struct {
	cfg      Config
	launcher browser.Launcher
	cal      LeadCalendar
	log      *slog.Logger
	metrics  *metrics.Portal

	sess session
}

// session is the live browser plus its authentication status.
type session struct {
	drv           browser.Driver
	authenticated atomic.Bool
}

func New(cfg Config, launcher browser.Launcher, cal LeadCalendar, log *slog.Logger, m *metrics.Portal) *Client {
	return &Client{
		cfg:      cfg.withDefaults(),
		launcher: launcher,
		cal:      cal,
		log:      log,
		metrics:  m,
	}
}

// Ready reports whether an authenticated browser session is open.
func (c *Client) Ready() bool { return c.sess.authenticated.Load() }

// Close discards the browser session.
func (c *Client) Close() {
	c.teardown()
}

func (c *Client) teardown() {
	c.sess.authenticated.Store(false)
	if c.sess.drv == nil {
		return
	}
	if err := c.sess.drv.Close(); err != nil {
		c.log.Warn("browser close failed", "err", err)
	}
	c.sess.drv = nil
}

func (c *Client) openBrowser(ctx context.Context) error {
	if c.sess.drv != nil {
		return nil
	}
	drv, err := c.launcher.Launch(ctx)
	if err != nil {
		return err
	}
	c.sess.drv = drv
	return nil
}

// ensureSession opens the browser and logs in when needed.
func (c *Client) ensureSession(ctx context.Context) bool {
	if c.sess.drv != nil && c.sess.authenticated.Load() {
		return true
	}
	return c.Login(ctx)
}

func (c *Client) url(path string) string { return c.cfg.BaseURL + path }

func (c *Client) drv() browser.Driver { return c.sess.drv }

const (
	inputTag  = "*[self::input or self::textarea or self::select]"
	actionTag = "*[self::a or self::button or self::input]"
)

// fill types text into the input whose name is exactly name.
func (c *Client) fill(ctx context.Context, name, text string) error {
	el, err := c.drv().Find(ctx, browser.ByAttr(inputTag, "name", name, true))
	if err != nil {
		return err
	}
	if err := el.Fill(text); err != nil {
		return fmt.Errorf("fill %s: %w", name, err)
	}
	return nil
}

// click presses the first action element whose attr matches value. attr "."
// matches the visible text.
func (c *Client) click(ctx context.Context, attr, value string, exact bool) error {
	el, err := c.drv().Find(ctx, browser.ByAttr(actionTag, attr, value, exact))
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("click %s=%s: %w", attr, value, err)
	}
	return nil
}

// selectByName picks the option value of the <select> with the given name.
func (c *Client) selectByName(ctx context.Context, name, value string) error {
	return c.selectAt(ctx, browser.ByAttr("select", "name", name, true), value)
}

func (c *Client) selectByID(ctx context.Context, id, value string) error {
	return c.selectAt(ctx, browser.ByAttr("select", "id", id, true), value)
}

func (c *Client) selectAt(ctx context.Context, xpath, value string) error {
	el, err := c.drv().Find(ctx, xpath)
	if err != nil {
		return err
	}
	if err := el.SelectValue(value); err != nil {
		return fmt.Errorf("select %s in %s: %w", value, xpath, err)
	}
	return nil
}

func (c *Client) textAt(ctx context.Context, xpath string) (string, error) {
	el, err := c.drv().Find(ctx, xpath)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func cellText(row browser.Element, xpath string) (string, error) {
	el, err := row.Find(xpath)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func isNotFound(err error) bool { return errors.Is(err, browser.ErrNotFound) }
