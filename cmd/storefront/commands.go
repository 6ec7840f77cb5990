package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/abgdnv/menusync/internal/cart"
	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/checkout"
	"github.com/abgdnv/menusync/internal/storefront"
	"github.com/abgdnv/menusync/internal/syncclient"
	"github.com/abgdnv/menusync/pkg/probes"
	"golang.org/x/sync/errgroup"
)

const fetchTimeout = 15 * time.Second

// watch keeps the mirror current until ctx is cancelled and prints the menu on every change.
// The readiness file exists while the push channel is connected.
func (a *app) watch(ctx context.Context) error {
	a.watching = true
	a.probes = probes.New(a.cfg.Probes, a.logger)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.probes.RunLiveness(gCtx)
	})
	g.Go(func() error {
		return a.sync.Run(gCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) onStateChange(state syncclient.State) {
	a.logger.Info("Push channel state changed", "state", state.String())
	if a.probes == nil {
		return
	}
	if err := a.probes.SetReady(state == syncclient.StateConnected); err != nil {
		a.logger.Error("Failed to update readiness", "error", err)
	}
}

// load fills the mirror with one fetch, bounded by fetchTimeout.
func (a *app) load(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	if err := a.sync.FetchInitial(fetchCtx); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	return nil
}

func (a *app) menu(ctx context.Context) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	printMenu(a.out, a.session.Menu())
	return nil
}

func (a *app) changeCart(ctx context.Context, cmd string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: storefront %s <product-id>", cmd)
	}
	id := args[0]

	var err error
	switch cmd {
	case "add":
		if err = a.load(ctx); err != nil {
			return err
		}
		err = a.session.AddToCart(ctx, id)
	case "inc":
		err = a.session.Cart().Increase(ctx, id)
	case "dec":
		err = a.session.Cart().Decrease(ctx, id)
	case "remove":
		err = a.session.Cart().Remove(ctx, id)
	}
	if err != nil {
		return err
	}
	printCart(a.out, a.session.Cart().Items(), nil)
	return nil
}

func (a *app) showCart(ctx context.Context) error {
	var discrepancies []cart.Discrepancy
	if err := a.load(ctx); err != nil {
		a.logger.Warn("Showing cart without catalog check", "error", err)
	} else {
		discrepancies = a.session.Discrepancies()
	}
	printCart(a.out, a.session.Cart().Items(), discrepancies)
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	req, err := parseCheckoutRequest(args)
	if err != nil {
		return err
	}
	if err := a.load(ctx); err != nil {
		return err
	}

	order, _, err := a.session.Checkout(ctx, req)
	if ood := (*storefront.OutOfDateError)(nil); errors.As(err, &ood) {
		printCart(a.out, a.session.Cart().Items(), ood.Discrepancies)
		return errors.New("update the cart before checking out")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order sent: %d items, total R$ %s\n", len(order.Items), order.Total)
	return nil
}

// parseCheckoutRequest reads the checkout form from command line flags.
func parseCheckoutRequest(args []string) (checkout.Request, error) {
	var req checkout.Request
	var method, changeFor string

	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&req.Customer.Name, "name", "", "customer name")
	fs.StringVar(&req.Customer.Address, "address", "", "delivery address")
	fs.StringVar(&req.Customer.Complement, "complement", "", "address complement")
	fs.StringVar(&req.Customer.Phone, "phone", "", "contact phone")
	fs.StringVar(&req.Customer.Neighborhood, "neighborhood", "", "delivery neighborhood")
	fs.StringVar(&method, "method", "", "payment method: credit, debit, pix or cash")
	fs.StringVar(&req.Payment.CardBrand, "brand", "", "card brand for credit and debit")
	fs.StringVar(&changeFor, "changefor", "", "cash amount paid with, for change")
	fs.StringVar(&req.Note, "note", "", "order notes")
	if err := fs.Parse(args); err != nil {
		return checkout.Request{}, fmt.Errorf("checkout: %w", err)
	}

	req.Payment.Method = checkout.Method(strings.ToLower(method))
	if changeFor != "" {
		amount, err := catalog.ParsePrice(changeFor)
		if err != nil {
			return checkout.Request{}, fmt.Errorf("checkout: changefor: %w", err)
		}
		req.Payment.ChangeFor = amount
	}
	return req, nil
}

func printMenu(w io.Writer, categories []catalog.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "The menu is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range categories {
		fmt.Fprintf(tw, "\n[%s]\n", c.Name)
		for _, p := range c.Products {
			status := ""
			if !p.Available {
				status = "unavailable"
			}
			fmt.Fprintf(tw, "%s\t%s\tR$ %s\t%s\n", p.ID, p.Name, p.Price, status)
		}
	}
	_ = tw.Flush()
}

func printCart(w io.Writer, items []cart.Item, discrepancies []cart.Discrepancy) {
	if len(items) == 0 {
		fmt.Fprintln(w, "The cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%dx\tR$ %s\n", it.ID, it.Name, it.Quantity, it.Total())
	}
	fmt.Fprintf(tw, "\tSubtotal\t\tR$ %s\n", cart.Subtotal(items))
	_ = tw.Flush()

	for _, d := range discrepancies {
		fmt.Fprintf(w, "! %s\n", d)
	}
}
