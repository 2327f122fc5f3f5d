package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-catalog-client/catalog"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/querycache"
	"golang.org/x/sync/errgroup"
)

const titleWidth = 40

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.auth.Logout(ctx)
		if err := a.cache.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	case "me":
		return a.me(ctx)
	case "products":
		return a.products(ctx, args)
	case "categories":
		return a.categories(ctx)
	case "category":
		if len(args) != 1 {
			return fmt.Errorf("usage: category <slug>")
		}
		return a.category(ctx, args[0])
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		return a.delete(ctx, args[0])
	case "sync":
		return a.sync(ctx)
	case "passcode":
		return a.passcodeCmd(ctx, args)
	case "lock":
		return a.lockCmd(ctx, args)
	case "shell":
		return a.shell(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	a.lock.Touch()
	fmt.Fprintf(a.out, "Welcome, %s (%s)\n", user.FullName(), user.Role)
	return nil
}

func (a *app) me(ctx context.Context) error {
	user, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\nusername: %s\nrole: %s\n", user.FullName(), user.Email, user.Username, user.Role)
	if user.IsSuperAdmin() {
		fmt.Fprintln(a.out, "You can delete products.")
	}
	return nil
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number, starting at 1")
	all := fs.Bool("all", false, "load every page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *all {
		pages, err := a.catalog.Pages(ctx, 0)
		for _, p := range pages {
			a.printProducts(p.Products)
		}
		if err != nil {
			return err
		}
		if len(pages) > 0 {
			fmt.Fprintf(a.out, "%d products\n", pages[len(pages)-1].Total)
		}
		return nil
	}

	p, meta, err := a.catalog.Products(ctx, *page)
	if err != nil {
		return err
	}
	a.printProducts(p.Products)
	fmt.Fprintf(a.out, "page %d, showing %d-%d of %d%s\n", *page, p.Skip+1, p.Skip+len(p.Products), p.Total, staleNote(meta))
	return nil
}

func (a *app) categories(ctx context.Context) error {
	categories, meta, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Fprintf(a.out, "%-24s %s\n", c.Slug, c.Name)
	}
	fmt.Fprintf(a.out, "%d categories%s\n", len(categories), staleNote(meta))
	return nil
}

func (a *app) category(ctx context.Context, slug string) error {
	p, meta, err := a.catalog.ProductsByCategory(ctx, slug)
	if err != nil {
		return err
	}
	a.printProducts(p.Products)
	fmt.Fprintf(a.out, "%d products in %s%s\n", p.Total, slug, staleNote(meta))
	return nil
}

func (a *app) delete(ctx context.Context, rawID string) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Errorf("invalid product id %q", rawID)
	}
	product, err := a.catalog.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Product deleted successfully: %s\n", product.Title)
	return nil
}

// sync prefetches the catalog for offline use.
func (a *app) sync(ctx context.Context) error {
	if err := a.cache.RequireOnline(); err != nil {
		return errors.Wrapf(err, "cannot sync")
	}
	categories, _, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error {
		_, err := a.catalog.Pages(gctx, 0)
		return err
	})
	for _, c := range categories {
		g.Go(func() error {
			_, _, err := a.catalog.ProductsByCategory(gctx, c.Slug)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Synced %d categories and every product page.\n", len(categories))
	return nil
}

func (a *app) passcodeCmd(ctx context.Context, args []string) error {
	switch {
	case len(args) == 2 && args[0] == "set":
		if err := a.passcode.SetPasscode(ctx, args[1]); err != nil {
			return err
		}
		a.lock.CheckSupport(ctx)
		fmt.Fprintln(a.out, "Passcode saved.")
	case len(args) == 1 && args[0] == "clear":
		if err := a.passcode.ClearPasscode(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Passcode cleared.")
	default:
		return fmt.Errorf("usage: passcode set <code> | passcode clear")
	}
	return nil
}

func (a *app) lockCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: lock enable | lock disable | lock status")
	}
	switch args[0] {
	case "enable":
		return a.lock.SetEnabled(ctx, true)
	case "disable":
		return a.lock.SetEnabled(ctx, false)
	case "status":
		s := a.lock.State()
		fmt.Fprintf(a.out, "enabled: %t\nsupported: %t\nlocked: %t\nrequires unlock: %t\ntimeout: %s\n",
			s.Enabled, s.Supported, s.Locked, s.RequiresUnlock, a.cfg.GetInactivityTimeout())
		return nil
	default:
		return fmt.Errorf("unknown lock command %q", args[0])
	}
}

func (a *app) printProducts(products []catalog.Product) {
	for _, p := range products {
		fmt.Fprintf(a.out, "%4d  %-*s %10s  -%s  %s\n",
			p.ID, titleWidth+3, catalog.TruncateText(p.Title, titleWidth),
			catalog.FormatCurrency(p.Price), catalog.FormatPercentage(p.DiscountPercentage), p.Category)
	}
}

func staleNote(meta querycache.Meta) string {
	var notes []string
	if meta.FromCache {
		notes = append(notes, "cached "+meta.FetchedAt.Local().Format("15:04"))
	}
	if meta.Stale {
		notes = append(notes, "may be out of date")
	}
	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}
