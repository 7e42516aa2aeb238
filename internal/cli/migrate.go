package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/blockwatch/internal/migrate"
	"github.com/gyaneshwarpardhi/blockwatch/internal/store"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Long: `Apply every schema migration newer than the version recorded in the
configured backend. serve runs the same steps at startup; migrate is for
upgrading a store ahead of a deploy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := loadConfig(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := store.Open(cmd.Context(), loader.Config().Database)
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := migrate.New(db, migrate.Steps()...)
			if err != nil {
				return err
			}
			res, err := m.Apply(cmd.Context())
			out, _ := json.Marshal(res)
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
