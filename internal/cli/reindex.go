package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncMirror bool

func init() {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the retrieval index from the record store",
		Long: "Rewrites the JSON mirror from the store (unless --sync-mirror=false) and rebuilds the " +
			"retrieval index. Only a file-backed text index (INDEX_DB_PATH) outlives the command.",
		Args: cobra.NoArgs,
		RunE: runReindex,
	}
	cmd.Flags().BoolVar(&syncMirror, "sync-mirror", true, "Rewrite the JSON mirror from the store before indexing")
	RootCmd.AddCommand(cmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if syncMirror && a.mirror != nil {
		if err := a.mirror.Sync(ctx); err != nil {
			return fmt.Errorf("sync mirror %s: %w", a.mirror.URL(), err)
		}
		fmt.Fprintf(out, "Mirror written to %s\n", a.mirror.URL())
	}

	client, err := a.genaiClient(ctx, false)
	if err != nil {
		return err
	}
	if err := a.openIndex(ctx, client, true); err != nil {
		return err
	}
	fmt.Fprintf(out, "Index rebuilt (%s backend)\n", cfg.Index.Backend)
	return nil
}
