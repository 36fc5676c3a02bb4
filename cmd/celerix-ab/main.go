package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/celerix-dev/celerix-abtest/internal/config"
	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/internal/landing"
	"github.com/celerix-dev/celerix-abtest/internal/logging"
	"github.com/celerix-dev/celerix-abtest/internal/notify"
	"github.com/celerix-dev/celerix-abtest/internal/transport"
	"github.com/celerix-dev/celerix-abtest/internal/variant"
	"github.com/celerix-dev/celerix-abtest/pkg/sdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	var cfg config.Visitor
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("%v", err)
	}
	logging.Init(false, logging.ParseLevel(cfg.LogLevel))

	store, err := sdk.New(cfg.Addr, cfg.DataDir)
	if err != nil {
		config.Exitf("Failed to open store: %v", err)
	}
	defer func() {
		if w, ok := store.(sdk.Waiter); ok {
			w.Wait()
		}
		if c, ok := store.(*sdk.Client); ok {
			c.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := strings.ToLower(os.Args[1])
	args := os.Args[2:]

	if err := run(ctx, cfg, store, command, args); err != nil {
		// Deferred waits are skipped by Exitf, so flush first.
		if w, ok := store.(sdk.Waiter); ok {
			w.Wait()
		}
		config.Exitf("%v", err)
	}
}

func run(ctx context.Context, cfg config.Visitor, store sdk.Store, command string, args []string) error {
	scope := store.Profile(cfg.Profile)
	page := landing.Page{Path: cfg.Page, UserAgent: cfg.UserAgent, Referrer: cfg.Referrer}

	visitor := func(p landing.Page) *landing.Visitor {
		return landing.NewVisitor(scope, p,
			landing.WithNotifier(notify.New(os.Stdout)),
			landing.WithPresetEndpoint(cfg.Endpoint),
		)
	}

	switch command {
	case "uid":
		uid, err := visitor(page).UserID()
		if err != nil {
			return err
		}
		fmt.Println(uid)

	case "variant":
		tag, err := visitor(page).AssignedVariant()
		if err != nil {
			return err
		}
		fmt.Println(tag)

	case "current":
		if len(args) < 1 {
			return fmt.Errorf("usage: celerix-ab current <path>")
		}
		fmt.Println(variant.CurrentVariant(args[0]))

	case "endpoint":
		if len(args) < 1 {
			url, err := transport.LoadEndpoint(scope)
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		}
		return visitor(page).SaveEndpoint(args[0])

	case "track":
		if len(args) < 1 {
			return fmt.Errorf("usage: celerix-ab track <event> [variant] [meta-json]")
		}
		v := visitor(page)
		tag := v.CurrentVariant()
		if len(args) > 1 {
			tag = variant.Tag(args[1])
		}
		var meta map[string]any
		if len(args) > 2 {
			if err := json.Unmarshal([]byte(args[2]), &meta); err != nil {
				return fmt.Errorf("invalid meta json: %w", err)
			}
		}
		return v.Track(ctx, args[0], tag, meta)

	case "redirect":
		next, err := visitor(page).Redirect(ctx)
		if err != nil {
			return err
		}
		fmt.Println(next)

	case "visit":
		if len(args) > 0 {
			page.Path = args[0]
		}
		v := visitor(page)
		if err := v.TrackPageView(ctx); err != nil {
			return err
		}
		_, err := v.ObservePricing(ctx, 1, 100)
		return err

	case "click":
		if len(args) < 1 {
			return fmt.Errorf("usage: celerix-ab click <A|B>")
		}
		tag := variant.Tag(strings.ToUpper(args[0]))
		if tag != variant.A && tag != variant.B {
			return fmt.Errorf("unknown variant %q", args[0])
		}
		return visitor(page).ConsoleClick(ctx, tag)

	case "heartbeat":
		return visitor(page).Heartbeat(ctx)

	case "buy":
		return visitor(page).TrackCTAClick(ctx, "Buy Now")

	case "dump":
		data, err := store.GetProfile(cfg.Profile)
		if err != nil {
			return err
		}
		printJSON(data)

	case "import":
		if len(args) < 1 {
			return fmt.Errorf("usage: celerix-ab import <data-dir>")
		}
		p, err := engine.NewPersistence(args[0])
		if err != nil {
			return err
		}
		data, err := p.LoadAll()
		if err != nil {
			return err
		}
		if err := engine.Migrate(engine.NewMemStore(data, nil), store); err != nil {
			return err
		}
		fmt.Printf("Imported %d profiles\n", len(data))

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
	return nil
}

func printUsage() {
	fmt.Println("celerix-ab - A/B test visitor")
	fmt.Println("\nUsage:")
	fmt.Println("  celerix-ab uid                              Print the visitor id")
	fmt.Println("  celerix-ab variant                          Print the persisted bucket (a|b)")
	fmt.Println("  celerix-ab current <path>                   Bucket implied by a page path")
	fmt.Println("  celerix-ab endpoint [url]                   Show or save the collector URL")
	fmt.Println("  celerix-ab track <event> [variant] [meta]   Send one event")
	fmt.Println("  celerix-ab redirect                         Assign a bucket and print the target page")
	fmt.Println("  celerix-ab visit [path]                     Report a page and pricing view")
	fmt.Println("  celerix-ab click <A|B>                      Send a console cta_click")
	fmt.Println("  celerix-ab heartbeat                        Send a heartbeat")
	fmt.Println("  celerix-ab buy                              Click the CTA and simulate a purchase")
	fmt.Println("  celerix-ab dump                             Print the stored profile")
	fmt.Println("  celerix-ab import <data-dir>                Copy profiles from a data directory")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  CELERIX_STORE_ADDR    Daemon address (empty: embedded store)")
	fmt.Println("  CELERIX_DATA_DIR      Embedded store directory (default: ./data)")
	fmt.Println("  CELERIX_AB_PROFILE    Profile to act as (default: default)")
	fmt.Println("  CELERIX_AB_ENDPOINT   Collector URL stored by redirect")
	fmt.Println("  CELERIX_AB_PAGE       Current page path (default: /)")
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}
