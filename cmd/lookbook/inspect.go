package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
	inventoryuc "github.com/kailas-cloud/lookbook/internal/usecase/inventory"
)

func newInspectCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the stored item count and the newest items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			deps, err := openStorage(ctx, cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer deps.Close()

			preview, err := inventoryuc.New(deps.items).Preview(ctx, limit)
			if err != nil {
				return err //nolint:wrapcheck // already annotated by inventory
			}
			return printPreview(cmd.OutOrStdout(), cfg.VectorStore.Backend, preview)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", inventoryuc.DefaultPreviewSize, "number of newest items to show")
	return cmd
}

func printPreview(w io.Writer, backend string, p inventoryuc.Preview) error {
	fmt.Fprintf(w, "Backend: %s\n", backend)
	fmt.Fprintf(w, "Items:   %d\n", p.Total)
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "\nNo items stored yet. Upload images with POST /items.")
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UPLOADED\tSOURCE\tBRAND\tSEASON\tTAGS")
	for _, it := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			orDash(it.UploadedAt()),
			orDash(it.Source()),
			orDash(it.Meta(domitem.MetaBrand)),
			orDash(it.Meta(domitem.MetaSeason)),
			truncate(it.Tags(), 60),
		)
	}
	return tw.Flush() //nolint:wrapcheck // terminal output
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
