package main

import (
	"errors"
	"fmt"
	"strings"

	"giveback/models"
	"giveback/pkg/config"
	"giveback/pkg/database"
	"giveback/pkg/donations"
	"giveback/pkg/forms"
	"giveback/pkg/logging"
	"giveback/pkg/media"
	"giveback/pkg/profile"
	"giveback/process/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every subcommand needs once the database is open.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	db        *gorm.DB
	profiles  *profile.Service
	donations *donations.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "giveadm",
		Short:        "Administer the giveback database",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.AddCommand(
		a.migrateCmd(),
		a.createUserCmd(),
		a.resetPasswordCmd(),
		a.deleteUserCmd(),
		a.grantCmd(),
		a.createProjectCmd(),
		a.reportCmd(),
		a.inspectFKsCmd(),
	)
	return root
}

func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return err
	}
	if err := donations.RegisterSignals(db, log); err != nil {
		return err
	}
	a.cfg, a.log, a.db = cfg, log, db
	a.profiles = profile.NewService(db, media.NewStore(cfg.UploadBase), log)
	a.donations = donations.NewService(db, log)
	return nil
}

func (a *app) close() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(a.db, a.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}

func (a *app) createUserCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create an account with its profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.profiles.CreateAccount(cmd.Context(), args[0], email, args[1])
			if errors.Is(err, profile.ErrUsernameTaken) {
				fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s id=%d\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func (a *app) resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username> <password>",
		Short: "Set a new password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.profiles.SetPassword(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password reset for user %s\n", args[0])
			return nil
		},
	}
}

func (a *app) deleteUserCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Delete an account and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			ctx := cmd.Context()
			id, err := a.profiles.UserID(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.profiles.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func (a *app) grantCmd() *cobra.Command {
	var (
		affinity, mentor bool
		roleTitle        string
		years            int
		speaking         bool
		expertise        string
		capacity         int
	)
	cmd := &cobra.Command{
		Use:   "grant <username>",
		Short: "Opt an account into the affinity group or mentor sub-profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if affinity == mentor {
				return errors.New("pass exactly one of --affinity or --mentor")
			}
			ctx := cmd.Context()
			if affinity {
				if years < 0 || years > 80 {
					return fmt.Errorf("--years must be between 0 and 80")
				}
				rec := models.AffinityProfile{RoleTitle: roleTitle, YearsExperience: years, OpenToSpeaking: speaking}
				if _, err := a.profiles.AddAffinity(ctx, args[0], rec); err != nil {
					return grantErr(args[0], "affinity", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted affinity profile to %s\n", args[0])
				return nil
			}
			if strings.TrimSpace(expertise) == "" {
				return errors.New("--expertise is required with --mentor")
			}
			if capacity < 1 || capacity > 20 {
				return fmt.Errorf("--capacity must be between 1 and 20")
			}
			rec := models.MentorProfile{Expertise: expertise, Capacity: capacity, AcceptingMentees: true}
			if _, err := a.profiles.AddMentor(ctx, args[0], rec); err != nil {
				return grantErr(args[0], "mentor", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted mentor profile to %s\n", args[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&affinity, "affinity", false, "create the women in tech sub-profile")
	f.BoolVar(&mentor, "mentor", false, "create the mentor sub-profile")
	f.StringVar(&roleTitle, "role-title", "", "affinity: current role")
	f.IntVar(&years, "years", 0, "affinity: years of experience")
	f.BoolVar(&speaking, "speaking", false, "affinity: open to speaking")
	f.StringVar(&expertise, "expertise", "", "mentor: areas of expertise")
	f.IntVar(&capacity, "capacity", 1, "mentor: maximum mentees")
	return cmd
}

func grantErr(username, kind string, err error) error {
	if errors.Is(err, profile.ErrAlreadyExists) {
		return fmt.Errorf("%s already has a %s profile", username, kind)
	}
	return err
}

func (a *app) createProjectCmd() *cobra.Command {
	var goal, summary string
	cmd := &cobra.Command{
		Use:   "create-project <title>",
		Short: "Create a fundraising project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := forms.ParseAmount(goal)
			if err != nil {
				return fmt.Errorf("--goal: %w", err)
			}
			p, err := a.donations.CreateProject(cmd.Context(), args[0], summary, cents)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project %q id=%d goal=%s\n", p.Title, p.ID, forms.FormatAmount(p.Goal))
			return nil
		},
	}
	cmd.Flags().StringVar(&goal, "goal", "0", "fundraising goal in currency units, e.g. 2500.00")
	cmd.Flags().StringVar(&summary, "summary", "", "short description")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var (
		month string
		list  bool
	)
	cmd := &cobra.Command{
		Use:   "report <username>",
		Short: "Print a user's donations for one month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report.Run(cmd.Context(), cmd.OutOrStdout(), a.donations, args[0], month, list)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to report (YYYY-MM, UTC)")
	cmd.Flags().BoolVar(&list, "list", false, "list matching donations")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func (a *app) inspectFKsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect-fks",
		Short: "Print the foreign keys of the application tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := database.AppTables(a.db)
			if err != nil {
				return err
			}
			fks, err := database.ForeignKeys(a.db, tables...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Foreign keys:")
			for _, fk := range fks {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", fk)
			}
			return nil
		},
	}
}
