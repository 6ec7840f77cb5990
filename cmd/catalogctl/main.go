// Package main is catalogctl, the administrator's catalog editor.
//
// Usage:
//
//	catalogctl list
//	catalogctl add -name ... -description ... -price 12.50 -category ... [-image url] [-available]
//	catalogctl update <id> [-name ...] [-description ...] [-price ...] [-category ...] [-image ...]
//	catalogctl toggle <id>
//	catalogctl delete <id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/abgdnv/menusync/internal/admin"
	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/client/catalogapi"
	"github.com/abgdnv/menusync/internal/config"
	"github.com/abgdnv/menusync/pkg/bootstrap"
	"github.com/abgdnv/menusync/pkg/config/configloader"
)

const serviceName = "catalogctl"

var errUsage = errors.New("usage: catalogctl <list|add|update|toggle|delete> [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, cfgErr := configloader.Load[*config.AdminConfig](serviceName, config.AdminDefaults())
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	logger := bootstrap.NewStderrLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	var opts []admin.Option
	if cfg.ConditionalWrites {
		opts = append(opts, admin.WithConditionalWrites())
	}
	api := catalogapi.New(cfg.CatalogAPI, cfg.Resilience.CircuitBreaker, logger)
	client := admin.New(api, logger, opts...)

	if err := client.Refresh(ctx); err != nil {
		return err
	}
	err := dispatch(ctx, client, args[0], args[1:], os.Stdout)
	if errors.Is(err, catalogapi.ErrVersionConflict) {
		return fmt.Errorf("%w: the catalog was changed by someone else, run the command again", err)
	}
	return err
}

func dispatch(ctx context.Context, client *admin.Client, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "list":
		printProducts(out, client.Products(), client.Version())
		return nil
	case "add":
		d, err := parseDraft(args)
		if err != nil {
			return err
		}
		p, err := client.AddProduct(ctx, d)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added %s\n", p.ID)
		return nil
	case "update":
		p, err := lookup(client, args)
		if err != nil {
			return err
		}
		if p, err = applyUpdate(p, args[1:]); err != nil {
			return err
		}
		if err := client.UpdateProduct(ctx, p); err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %s\n", p.ID)
		return nil
	case "toggle":
		p, err := lookup(client, args)
		if err != nil {
			return err
		}
		if p, err = client.ToggleAvailability(ctx, p); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s is now %s\n", p.ID, availability(p.Available))
		return nil
	case "delete":
		if len(args) != 1 {
			return errors.New("usage: catalogctl delete <id>")
		}
		if err := client.DeleteProduct(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", args[0])
		return nil
	default:
		return errUsage
	}
}

// lookup finds the product named by the first argument in the last known catalog.
func lookup(client *admin.Client, args []string) (catalog.Product, error) {
	if len(args) == 0 {
		return catalog.Product{}, errors.New("product id is required")
	}
	p, ok := catalog.Find(client.Products(), args[0])
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: %s", admin.ErrProductNotFound, args[0])
	}
	return p, nil
}

func parseDraft(args []string) (admin.Draft, error) {
	var d admin.Draft
	var price string

	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&d.Name, "name", "", "product name")
	fs.StringVar(&d.Description, "description", "", "product description")
	fs.StringVar(&price, "price", "", "price, e.g. 12.50")
	fs.StringVar(&d.Category, "category", "", "menu category")
	fs.StringVar(&d.Image, "image", "", "image url")
	fs.BoolVar(&d.Available, "available", false, "list the product as available")
	if err := fs.Parse(args); err != nil {
		return admin.Draft{}, fmt.Errorf("add: %w", err)
	}
	if price != "" {
		amount, err := catalog.ParsePrice(price)
		if err != nil {
			return admin.Draft{}, err
		}
		d.Price = amount
	}
	return d, nil
}

// applyUpdate overwrites the fields of p named on the command line and keeps the rest.
func applyUpdate(p catalog.Product, args []string) (catalog.Product, error) {
	var price string
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&p.Name, "name", p.Name, "product name")
	fs.StringVar(&p.Description, "description", p.Description, "product description")
	fs.StringVar(&price, "price", "", "price, e.g. 12.50")
	fs.StringVar(&p.Category, "category", p.Category, "menu category")
	fs.StringVar(&p.Image, "image", p.Image, "image url")
	if err := fs.Parse(args); err != nil {
		return catalog.Product{}, fmt.Errorf("update: %w", err)
	}
	if price != "" {
		amount, err := catalog.ParsePrice(price)
		if err != nil {
			return catalog.Product{}, err
		}
		p.Price = amount
	}
	return p, nil
}

func printProducts(w io.Writer, products []catalog.Product, version uint64) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTATUS\n")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, p.Price, availability(p.Available))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d products, version %d\n", len(products), version)
}

func availability(available bool) string {
	if available {
		return "available"
	}
	return "unavailable"
}
