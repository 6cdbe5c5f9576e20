package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/risk"
)

func newCreateCmd(get func() *app) *cobra.Command {
	var req domain.RegisterRequest
	var roleName string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with the given role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, err := domain.ParseRole(roleName)
			if err != nil {
				return err
			}
			a, err := get().accounts.CreateWithRole(cmd.Context(), req, role)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created actor %d <%s> role=%s\n", a.ID, a.Email, a.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&roleName, "role", "USER", "Role: USER, GOLD or ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newPromoteCmd(get func() *app) *cobra.Command {
	var email, roleName string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Change the role of an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, err := domain.ParseRole(roleName)
			if err != nil {
				return err
			}
			a, err := get().accounts.SetRole(cmd.Context(), email, role)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "actor %d <%s> role=%s\n", a.ID, a.Email, a.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&roleName, "role", "", "Role: USER, GOLD or ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newUnflagCmd(get func() *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "unflag",
		Short: "Clear the monitored flag of an account",
		Long: "The monitor never clears the flag on its own. The reset goes through the regular save path " +
			"and is published to Redis as an \"off\" signal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := get().accounts.ClearMonitored(cmd.Context(), email)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "actor %d <%s> monitored=%t\n", a.ID, a.Email, a.Monitored)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// simulate воспроизводит всплеск CRUD-операций от одного актора
func newSimulateCmd(get func() *app) *cobra.Command {
	var (
		email string
		ops   int
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Append a burst of synthetic actions for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ops < 1 {
				return fmt.Errorf("%w: --ops must be >= 1", domain.ErrInvalidInput)
			}
			a := get()
			ctx := cmd.Context()

			actor, err := a.actors.GetByEmail(ctx, email)
			if errors.Is(err, domain.ErrNotFound) {
				actor = &domain.Actor{Email: email, FirstName: "Test", LastName: "Attacker", Role: domain.RoleUser}
				err = a.actors.Save(ctx, actor)
			}
			if err != nil {
				return err
			}

			for i := 0; i < ops; i++ {
				rec := domain.ActionRecord{
					ActorID:    actor.ID,
					Kind:       domain.ActionCreate,
					TargetType: "Test",
					TargetID:   int64(i),
					Detail:     fmt.Sprintf("Simulated attack operation %d", i+1),
				}
				if _, err := a.log.Append(ctx, rec); err != nil {
					return fmt.Errorf("operation %d: %w", i+1, err)
				}
				if delay > 0 && i < ops-1 {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "appended %d actions for actor %d <%s>\n", ops, actor.ID, actor.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "attacker@test.com", "Account email (created if missing)")
	cmd.Flags().IntVar(&ops, "ops", 100, "Number of operations")
	cmd.Flags().DurationVar(&delay, "delay", 100*time.Millisecond, "Delay between operations")
	return cmd
}

// scan — один цикл монитора без запуска фонового сервиса
func newScanCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a single threshold scan against the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			m, err := risk.NewMonitor(risk.Config{
				Window:       a.cfg.Monitor.Window,
				Threshold:    a.cfg.Monitor.Threshold,
				PollInterval: a.cfg.Monitor.PollInterval,
			}, a.actors, a.log, risk.WithLogger(a.logger))
			if err != nil {
				return err
			}
			res, err := m.ScanOnce(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d flagged=%v errors=%d\n", res.Scanned, res.Flagged, res.Errors)
			return nil
		},
	}
}
