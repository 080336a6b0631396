package config

import (
	"github.com/Spok95/portal-bot/internal/browser"
	"github.com/Spok95/portal-bot/internal/portal"
)

func (c Config) PortalClient() portal.Config {
	p := c.Portal
	s := c.Shipping
	return portal.Config{
		BaseURL:        p.BaseURL,
		Username:       p.Username,
		Password:       p.Password,
		CustomerNumber: p.CustomerNumber,
		HomePath:       p.HomePath,
		LoginTimeout:   p.LoginTimeout,
		WaitTimeout:    p.WaitTimeout,
		LineCapacity:   p.LineCapacity,
		Phone:          s.Phone,
		Fax:            s.Fax,
		HeavyThreshold: s.HeavyThreshold,
		Heavy:          portal.ShippingProfile(s.Heavy),
		Light:          portal.ShippingProfile(s.Light),
	}
}

func (c Config) Browser() browser.RodConfig {
	return browser.RodConfig{
		Headless:     c.Portal.Headless,
		Bin:          c.Portal.BrowserBin,
		ControlURL:   c.Portal.ControlURL,
		FrameTimeout: c.Portal.FrameTimeout,
	}
}
