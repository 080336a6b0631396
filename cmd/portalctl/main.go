package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Spok95/portal-bot/internal/browser"
	"github.com/Spok95/portal-bot/internal/calendar"
	"github.com/Spok95/portal-bot/internal/config"
	"github.com/Spok95/portal-bot/internal/infra/logger"
	"github.com/Spok95/portal-bot/internal/ordersheet"
	"github.com/Spok95/portal-bot/internal/portal"
)

const usage = `usage: portalctl [flags] <command> <arg>

commands:
  avail   <catalog number>   stock per warehouse
  track   <po>               tracking lines of a purchase order
  confirm <po>               confirmation details of a purchase order
  order   <sheet.xlsx>       verify (or with -submit, place) an order sheet

flags:
`

func main() {
	var (
		cfgPath = flag.String("config", "config/example.yaml", "Path to config file")
		format  = flag.String("format", "text", "Output format: text, json")
		xlsx    = flag.String("xlsx", "", "Also write avail/track results to this .xlsx file")
		submit  = flag.Bool("submit", false, "Submit the order instead of stopping after verification")
		verbose = flag.Bool("verbose", false, "Log browser steps to stderr")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.NewConsole(os.Stderr, *verbose)
	client := portal.New(cfg.PortalClient(), browser.NewRodLauncher(cfg.Browser(), log),
		calendar.New(cfg.Location()), log, nil)
	defer client.Close()

	cmd := command{
		client: client,
		out:    output{w: os.Stdout, format: *format},
		xlsx:   *xlsx,
		submit: *submit,
	}
	if err := cmd.run(ctx, flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		client.Close()
		os.Exit(1)
	}
}

type command struct {
	client *portal.Client
	out    output
	xlsx   string
	submit bool
}

func (c command) run(ctx context.Context, name, arg string) error {
	switch name {
	case "avail":
		avail, price, ok := c.client.GetAvailability(ctx, arg)
		if !ok {
			return fmt.Errorf("availability of %s could not be read", arg)
		}
		if err := c.writeXLSX(func() ([]byte, error) { return ordersheet.AvailabilityReport(arg, avail, price) }); err != nil {
			return err
		}
		return c.out.availability(arg, avail, price)

	case "track":
		lines := c.client.GetTracking(ctx, arg)
		if err := c.writeXLSX(func() ([]byte, error) { return ordersheet.TrackingReport(arg, lines) }); err != nil {
			return err
		}
		return c.out.tracking(lines)

	case "confirm":
		return c.out.confirmation(c.client.GetConfirmation(ctx, arg))

	case "order":
		data, err := os.ReadFile(arg)
		if err != nil {
			return err
		}
		req, err := ordersheet.Parse(data)
		if err != nil {
			return err
		}
		res := c.client.PlaceOrder(ctx, req, c.submit)
		if err := c.out.order(res); err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("order %s stopped after stage %s", req.OrderID, res.Stage)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func (c command) writeXLSX(build func() ([]byte, error)) error {
	if c.xlsx == "" {
		return nil
	}
	data, err := build()
	if err != nil {
		return err
	}
	return os.WriteFile(c.xlsx, data, 0o644)
}
