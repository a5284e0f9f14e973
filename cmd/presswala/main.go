package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joao-fontenele/presswala/internal/client"
	"github.com/joao-fontenele/presswala/internal/config"
	"github.com/joao-fontenele/presswala/internal/prefs"
	"github.com/joao-fontenele/presswala/internal/session"
	"github.com/joao-fontenele/presswala/internal/shutdown"
)

var Version = "dev"

type app struct {
	cfg       config.Config
	apiURL    string
	token     string
	prefsPath string
	out       io.Writer
}

func (a *app) client() *client.Client {
	var opts []client.Option
	if a.token != "" {
		opts = append(opts, client.WithToken(a.token))
	}
	return client.New(a.apiURL, opts...)
}

func (a *app) store() (prefs.Store, error) {
	path := a.prefsPath
	if path == "" {
		var err error
		if path, err = prefs.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return prefs.NewFileStore(path), nil
}

func (a *app) resolver() (*session.Resolver, error) {
	store, err := a.store()
	if err != nil {
		return nil, err
	}
	c := a.client()
	return session.NewResolver(c, store, c.Authenticated()).WithAdminTimeout(a.cfg.AdminTimeout), nil
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "presswala",
		Short:         "Command line client for the presswala ironing marketplace",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api", a.cfg.APIURL, "API base url")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv("PRESSWALA_TOKEN"), "bearer token")
	root.PersistentFlags().StringVar(&a.prefsPath, "prefs", "", "preference file (default: user config dir)")

	root.AddCommand(whoamiCmd(a))
	root.AddCommand(sessionCmd(a))
	root.AddCommand(profileCmd(a))
	root.AddCommand(roleCmd(a))
	root.AddCommand(signoutCmd(a))
	root.AddCommand(adminCmd(a))
	root.AddCommand(ordersCmd(a))
	root.AddCommand(tokenCmd(a))

	return root
}

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	a := &app{cfg: config.Load(), out: os.Stdout}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
