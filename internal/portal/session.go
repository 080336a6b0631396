package portal

import (
	"context"
	"time"

	"github.com/Spok95/portal-bot/internal/browser"
)

const (
	loginPath   = "/b2b_altra/b2b/init.do?scenario.xcm=ALTRA"
	// the marker is rendered as a link on some pages and plain text on others
	logoffXPath = "//*[text()[contains(normalize-space(.), 'Log off')]]"
)

var headerFrames = []string{"isaTop", "header"}

// Login authenticates the browser session, launching a browser first if
// none is open. Failures are logged and reported as false.
func (c *Client) Login(ctx context.Context) bool {
	start := time.Now()
	ok := c.login(ctx)
	c.metrics.Observe("login", ok, start)
	return ok
}

func (c *Client) login(ctx context.Context) bool {
	c.sess.authenticated.Store(false)
	if err := c.openBrowser(ctx); err != nil {
		c.log.Error("failed to launch browser", "err", err)
		return false
	}

	drv := c.drv()
	err := func() error {
		if err := drv.Navigate(ctx, c.url(loginPath)); err != nil {
			return err
		}
		if err := c.fill(ctx, "UserId", c.cfg.Username); err != nil {
			return err
		}
		if err := c.fill(ctx, "nolog_password", c.cfg.Password); err != nil {
			return err
		}
		login, err := drv.Find(ctx, browser.ByAttr(actionTag, "name", "login", true))
		if err != nil {
			return err
		}
		if err := login.Click(); err != nil {
			return err
		}
		if err := drv.EnterFrames(ctx, headerFrames...); err != nil {
			return err
		}
		_, err = drv.WaitVisible(ctx, logoffXPath, c.cfg.LoginTimeout)
		return err
	}()
	if err != nil {
		c.log.Error("failed to login", "user", c.cfg.Username, "err", err)
		return false
	}

	c.sess.authenticated.Store(true)
	c.log.Info("logged in", "user", c.cfg.Username)
	return true
}
