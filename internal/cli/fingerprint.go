package cli

import (
	"fmt"
	"os"

	"github.com/jsherman999/liveserve/internal/config"
	"github.com/jsherman999/liveserve/internal/fingerprint"
	"github.com/spf13/cobra"
)

func fingerprintCmd(cfgPath *string) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the current fingerprint of the watched files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath, cmd.Flags())
			if err != nil {
				return err
			}

			sc := fingerprint.NewScanner(os.DirFS(cfg.Server.Root))
			files, err := sc.Files()
			if err != nil {
				return err
			}
			fp, err := sc.Scan()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root=%s files=%d fingerprint=%s\n", cfg.Server.Root, len(files), fp)
			if list {
				for _, f := range files {
					fmt.Fprintln(out, f)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "also print every watched file")
	return cmd
}
