package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"library-catalog/config"
	"library-catalog/library"
	"library-catalog/web"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs. The catalog is opened once, in
// the root command's PersistentPreRunE, after flags are parsed.
type app struct {
	cfg     config.Config
	dataDir string
	catalog *library.Catalog
	today   func() string
}

func newRootCmd(cfg config.Config) *cobra.Command {
	a := &app{
		cfg:   cfg,
		today: func() string { return time.Now().Format(web.DateLayout) },
	}

	root := &cobra.Command{
		Use:          "library",
		Short:        "Manage a small library catalog of books and members",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := library.NewCatalog(a.dataDir)
			if err != nil {
				return err
			}
			a.catalog = catalog
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", cfg.DataDir, "directory holding books.csv and members.csv")

	root.AddCommand(
		newBookCmd(a),
		newMemberCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a SQLite snapshot of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := library.ExportSQLite(a.catalog, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d book(s) and %d member(s) to %s\n", res.Books, res.Members, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "catalog.db", "SQLite database to write")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	addr := a.cfg.Addr
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog as a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.GinMode != "" {
				gin.SetMode(a.cfg.GinMode)
			}
			router := web.NewRouter(web.NewHandler(a.catalog, time.Now))
			log.Printf("catalog data in %s, listening on %s", a.catalog.DataDir(), addr)
			return router.Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", addr, "listen address")
	return cmd
}

// isTerminal reports whether w is an interactive terminal; lists are printed
// as aligned tables there and as tab-separated rows otherwise.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}

func trimmed(values ...*string) {
	for _, v := range values {
		*v = strings.TrimSpace(*v)
	}
}
