package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/cache"
	"github.com/username/compartmentdesk/backend/src/database"
	"github.com/username/compartmentdesk/backend/src/jobs"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/security"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "deskctl",
		Short:         "Operator tool for the compartment desk",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logger.InitLogger(level)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newDatesCmd())
	root.AddCommand(newAccrualCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newRunJobCmd())
	return root
}

// termsFlags registers the ISIN terms flags shared by dates and accrual.
func termsFlags(cmd *cobra.Command) {
	cmd.Flags().String("issue", "", "issue date, YYYY-MM-DD")
	cmd.Flags().String("maturity", "", "maturity date, YYYY-MM-DD")
	cmd.Flags().String("frequency", "", "coupon frequency (Weekly, Monthly, Quarterly, Semi-Annually, Annually)")
	_ = cmd.MarkFlagRequired("issue")
	_ = cmd.MarkFlagRequired("maturity")
	_ = cmd.MarkFlagRequired("frequency")
}

func termsFromFlags(cmd *cobra.Command) (bondcalc.IsinTerms, error) {
	issue, _ := cmd.Flags().GetString("issue")
	maturity, _ := cmd.Flags().GetString("maturity")
	frequency, _ := cmd.Flags().GetString("frequency")
	return models.Isin{IssueDate: issue, MaturityDate: maturity, CouponFrequency: frequency}.Terms()
}

func newDatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Print the coupon payment schedule of an ISIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			dates, err := bondcalc.CouponPaymentDates(terms.IssueDate, terms.MaturityDate, terms.Frequency)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			rows := models.NewCouponDates(dates, terms.MaturityDate)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tDATE\tWEEKDAY\t")
			for i, d := range rows {
				marker := ""
				if d.IsMaturity {
					marker = "maturity"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, d.Date, d.Weekday, marker)
			}
			return tw.Flush()
		},
	}
	termsFlags(cmd)
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

func newAccrualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accrual",
		Short: "Compute the economics of one trade at a flat interest rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			valueStr, _ := f.GetString("value-date")
			tradeStr, _ := f.GetString("trade-date")
			notional, _ := f.GetFloat64("notional")
			rate, _ := f.GetFloat64("rate")
			priceClean, _ := f.GetFloat64("price-clean")
			fee, _ := f.GetFloat64("fee")

			valueDate, err := bondcalc.ParseDate(valueStr)
			if err != nil {
				return fmt.Errorf("value date: %w", err)
			}
			tradeDate := valueDate
			if tradeStr != "" {
				if tradeDate, err = bondcalc.ParseDate(tradeStr); err != nil {
					return fmt.Errorf("trade date: %w", err)
				}
			}

			settings := bondcalc.DefaultSettings()
			settings.FallbackRate = rate
			econ, err := bondcalc.Recalculate(bondcalc.TradeInputs{
				TradeDate:  &tradeDate,
				ValueDate:  &valueDate,
				Notional:   notional,
				PriceClean: priceClean,
				TranFee:    fee,
			}, terms, nil, settings)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(econ)
		},
	}
	termsFlags(cmd)
	cmd.Flags().String("value-date", "", "settlement date, YYYY-MM-DD")
	cmd.Flags().String("trade-date", "", "trade date, YYYY-MM-DD (defaults to the value date)")
	cmd.Flags().Float64("notional", 0, "face amount")
	cmd.Flags().Float64("rate", 0, "annual interest rate in percent")
	cmd.Flags().Float64("price-clean", bondcalc.DefaultCleanPrice, "clean price in percent of par")
	cmd.Flags().Float64("fee", 0, "transaction fee as a fraction of notional")
	_ = cmd.MarkFlagRequired("value-date")
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Issue a bearer token for a desk user or service account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if len(secret) < 32 {
				return errors.New("JWT_SECRET must be set and at least 32 characters long")
			}
			expiry, _ := cmd.Flags().GetDuration("expiry")
			token, err := security.NewAuthService(secret, expiry).GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Duration("expiry", 12*time.Hour, "token lifetime")
	return cmd
}

// cacheInvalidator drops ISIN entries from the shared cache after a job.
type cacheInvalidator struct {
	cache cache.Cache
}

func (c cacheInvalidator) InvalidateIsin(ctx context.Context, isinID string) {
	if err := c.cache.Delete(ctx, cache.IsinKey(isinID)); err != nil {
		logger.FromContext(ctx).Warn("Failed to invalidate ISIN cache", "isinID", isinID, "error", err)
	}
}

func newRunJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-job [name]",
		Short: "Run a scheduled job once against the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			dbPath, _ := f.GetString("db")
			dateStr, _ := f.GetString("date")
			redisAddr, _ := f.GetString("redis")

			asOf := time.Now().UTC()
			if dateStr != "" {
				d, err := bondcalc.ParseDate(dateStr)
				if err != nil {
					return fmt.Errorf("date: %w", err)
				}
				asOf = d
			}

			conn, err := database.Open(dbPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := database.Migrate(conn); err != nil {
				return err
			}

			var inv jobs.Invalidator
			if redisAddr != "" {
				rc := cache.NewRedis(redisAddr)
				defer rc.Close()
				inv = cacheInvalidator{cache: rc}
			}

			runner := jobs.NewRunner(conn, inv)
			if !runner.Has(args[0]) {
				return fmt.Errorf("%w: %s (known: %v)", jobs.ErrUnknownJob, args[0], runner.Names())
			}
			run, err := runner.Run(cmd.Context(), args[0], asOf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s as of %s: %d record(s) changed\n",
				run.JobName, bondcalc.Truncate(asOf).Format(bondcalc.DateLayout), run.Affected)
			return nil
		},
	}
	cmd.Flags().String("db", "./compartmentdesk.db", "SQLite database path")
	cmd.Flags().String("date", "", "business date, YYYY-MM-DD (defaults to today)")
	cmd.Flags().String("redis", "", "Redis address of the shared ISIN cache to invalidate")
	return cmd
}
