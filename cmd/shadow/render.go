package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/shadow/internal/config"
	"github.com/vango-dev/shadow/internal/errors"
	"github.com/vango-dev/shadow/internal/sample"
	"github.com/vango-dev/shadow/pkg/ssr"
)

func renderCmd(load configLoader) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "render [page]",
		Short: "Render a page to stdout",
		Long: `Render a page once and print the document.

The page name defaults to the configured page. --path sets the request
URL the page sees, including its query.

Examples:
  shadow render hello
  shadow render greeting --path="/?name=Ada"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Render.Page = args[0]
			}
			return runRender(cmd.Context(), cfg, target, cmd)
		},
	}

	cmd.Flags().StringVar(&target, "path", "/", "Request path and query")
	cmd.Flags().String("static", config.DefaultStaticDir, "Directory containing the client bundle")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Render timeout including pending work")

	return cmd
}

func runRender(ctx context.Context, cfg *config.Config, target string, cmd *cobra.Command) error {
	page, ok := sample.Lookup(cfg.Render.Page)
	if !ok {
		return errors.New("E140").
			WithDetail(fmt.Sprintf("No page named %q", cfg.Render.Page)).
			WithSuggestion("Use one of: " + strings.Join(sample.Names(), ", "))
	}
	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	opts := []ssr.Option{ssr.WithLogger(logger), ssr.WithTimeout(cfg.Render.Timeout)}
	bundle, err := ssr.LoadBundle(os.DirFS(cfg.StaticPath()))
	switch {
	case err == nil:
		opts = append(opts, ssr.WithBundle(bundle))
	case stderrors.Is(err, ssr.ErrNoBundle), stderrors.Is(err, os.ErrNotExist):
		logger.Debug("rendering without a client bundle", "dir", cfg.StaticPath())
	default:
		return errors.FromError(err, "E061")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.New("E142").WithDetail("Invalid --path " + target).Wrap(err)
	}
	req.Header.Set("Accept", "text/html")

	res, err := ssr.NewHost(opts...).Render(ctx, req, page)
	if err != nil {
		return errors.FromError(err, "E060")
	}
	_, err = cmd.OutOrStdout().Write(append(res.Body, '\n'))
	return err
}

func pagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the available pages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range sample.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
