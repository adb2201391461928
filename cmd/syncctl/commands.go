package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/pkg/jwt"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List supported taxonomy kinds and their WooCommerce mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tCOLLECTION\tSHAPE\tATTRIBUTE SLUGS")
			for _, d := range model.Descriptors() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Kind, d.Collection, d.Shape, strings.Join(d.AttributeSlugs, ","))
			}
			return tw.Flush()
		},
	}
}

func newAttributeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attribute <kind>",
		Short: "Run Term Lookup for a kind and print the matching attribute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			return a.withService(func(svc taxonomy.Service) error {
				attr, err := svc.ResolveAttribute(cmd.Context(), kind)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), attr)
			})
		},
	}
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Settle reconciliation runs left in a pending state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(func(svc taxonomy.Service) error {
				result, err := svc.SweepStale(cmd.Context(), olderThan, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 15*time.Minute, "only runs idle for longer than this")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum runs to examine")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <kind> <file.csv>",
		Short: "Create one record per CSV row, reconciling each with WooCommerce",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			return a.withService(func(svc taxonomy.Service) error {
				result, err := svc.Import(cmd.Context(), kind, f)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d of %d rows failed", result.Failed, result.Total)
				}
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <kind> <file.xlsx>",
		Short: "Write every record of a kind to an xlsx workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			f, err := a.create(args[1])
			if err != nil {
				return err
			}

			err = a.withService(func(svc taxonomy.Service) error {
				return svc.Export(cmd.Context(), kind, f)
			})
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", args[1], cerr)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a service token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case jwt.RoleAdmin, jwt.RoleEditor, jwt.RoleViewer:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer).GenerateToken(subject, role, "service", ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. the calling system")
	cmd.Flags().StringVar(&role, "role", jwt.RoleEditor, "admin, editor or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending journal database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("journal database is disabled (DB_ENABLED=false)")
			}

			applied, err := a.migrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}
