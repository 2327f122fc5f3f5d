package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/jrsteele09/go-catalog-client/internal/errors"
)

// shell runs commands interactively. Every command counts as activity for
// the inactivity lock; "background" and "foreground" simulate the app leaving
// and returning to the screen.
func (a *app) shell(ctx context.Context) error {
	fmt.Fprintln(a.out, "Type 'help' for commands, 'exit' to quit.")
	a.lock.Touch()
	for {
		fmt.Fprint(a.out, "> ")
		line, err := a.in.ReadString('\n')
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprint(a.out, usage)
			fmt.Fprintln(a.out, "shell only: unlock, background, foreground, online, offline, exit")
			continue
		case "unlock":
			if err := a.lock.Unlock(ctx, ""); err != nil {
				fmt.Fprintf(a.out, "error: %s\n", describe(err))
			}
			continue
		case "background":
			a.lock.Background()
			continue
		case "foreground":
			a.lock.Foreground()
			continue
		}

		if err := a.lock.Guard(); err != nil {
			fmt.Fprintf(a.out, "error: %s\n", describe(err))
			continue
		}
		a.lock.Touch()

		switch cmd {
		case "online":
			a.cache.SetOnline(true)
		case "offline":
			a.cache.SetOnline(false)
		case "shell":
			fmt.Fprintln(a.out, "already in the shell")
		default:
			err := a.dispatch(ctx, cmd, args)
			switch {
			case apperrors.Is(err, apperrors.ErrForbidden):
				fmt.Fprintln(a.out, "Delete Failed: You don't have permission to delete products")
			case err != nil:
				fmt.Fprintf(a.out, "error: %s\n", describe(err))
			}
		}
	}
}
