package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/parites/ratesd/fetchers"
	"github.com/parites/ratesd/importer"
	"github.com/parites/ratesd/storage"
)

func importCommand() *cobra.Command {
	var (
		target string
		date   string
		from   string
		to     string
		db     storage.ConnConfig
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import rates for one currency without the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			logger := log.New(cmd.OutOrStdout(), "import ", 0)

			engine := importer.Engine{
				Base:   config.Base,
				Source: fetchers.APILayer{URL: config.APIURL, APIKey: config.APIKey},
			}

			ctx := cmd.Context()

			st, err := storage.Connect(ctx, db)
			if err != nil {
				return err
			}
			defer st.Close()

			if from != "" || to != "" {
				result, err := engine.ImportRange(ctx, st, target, from, to)
				if err != nil {
					return err
				}

				logger.Printf("%s (%s): %d rows imported for %s..%s\n",
					result.Target, result.Code, result.RowsWritten, result.From, result.To)

				return nil
			}

			result, err := engine.ImportDay(ctx, st, target, date)
			if err != nil {
				return err
			}

			logger.Printf("%s (%s): %d row imported\n", result.Target, result.Code, result.RowsWritten)

			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target ISO currency code (ex: USD)")
	cmd.Flags().StringVar(&date, "date", "", "Day to import (YYYY-MM-DD), latest quote when empty")
	cmd.Flags().StringVar(&from, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&db.Host, "db-host", "", "MySQL host")
	cmd.Flags().StringVar(&db.User, "db-user", "", "MySQL user")
	cmd.Flags().StringVar(&db.Password, "db-password", "", "MySQL password")
	cmd.Flags().StringVar(&db.Database, "db-name", "", "MySQL database")
	cmd.Flags().IntVar(&db.Port, "db-port", 3306, "MySQL port")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
