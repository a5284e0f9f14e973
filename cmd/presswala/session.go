package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/prefs"
	"github.com/joao-fontenele/presswala/internal/session"
)

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the principal the API sees",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client().WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("%s\n", p)
			return nil
		},
	}
}

func sessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Resolve which view the caller lands on",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.resolver()
			if err != nil {
				return err
			}
			state, err := r.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("%s\n", state)
			return nil
		},
	}
}

func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or save the caller's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client().CallerProfile(cmd.Context())
			if err != nil {
				return err
			}
			if p == nil {
				a.printf("no profile\n")
				return nil
			}
			a.printf("%s %s\n", p.Name, p.Phone)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Save name and phone",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			r, err := a.resolver()
			if err != nil {
				return err
			}
			if err := r.SaveProfile(cmd.Context(), domain.UserProfile{Name: name, Phone: phone}); err != nil {
				return err
			}
			a.printf("profile saved\n")
			return nil
		},
	}
	set.Flags().String("name", "", "display name")
	set.Flags().String("phone", "", "phone number")
	cmd.AddCommand(set)

	return cmd
}

func roleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Show the stored view preference and the server role",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			preferred, _ := store.Load()
			if preferred == prefs.RoleNone {
				preferred = "none"
			}
			role, err := a.client().CallerRole(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("preferred: %s\nserver: %s\n", preferred, role)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "select <customer|partner|owner|admin>",
		Short:     "Store the preferred view",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"customer", "partner", "owner", "admin"},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.resolver()
			if err != nil {
				return err
			}
			if err := r.SelectRole(prefs.Role(args[0])); err != nil {
				return err
			}
			a.printf("role set to %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func signoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored view preference",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.resolver()
			if err != nil {
				return err
			}
			return r.SignOut()
		},
	}
}

func adminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin bootstrap and checks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "claim",
		Short: "Become admin if nobody has claimed it yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.resolver()
			if err != nil {
				return err
			}
			outcome, err := r.ClaimAdmin(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("%s\n", outcome)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Run the admin capability gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.client()
			d := session.NewGate(c, c.Authenticated(), a.cfg.AdminTimeout).Check(cmd.Context(), session.CapAdmin)
			switch d.Outcome {
			case session.OutcomeDenied:
				a.printf("denied (principal %s)\n", d.Principal)
			default:
				a.printf("%s\n", d.Outcome)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client().AdminStats(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("pending orders:   %d\n", s.PendingOrders)
			a.printf("active orders:    %d\n", s.ActiveOrders)
			a.printf("orders today:     %d\n", s.TotalOrdersToday)
			a.printf("earnings:         ₹%d\n", s.TotalEarnings)
			a.printf("shops:            %d (%d pending)\n", s.TotalShops, s.PendingShopApprovals)
			a.printf("customers:        %d\n", s.TotalCustomers)
			return nil
		},
	})

	return cmd
}

// tokenCmd mints a development token signed with JWT_SECRET.
func tokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <principal>",
		Short: "Mint a development bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			tok, err := auth.Issue([]byte(a.cfg.JWTSecret), args[0], ttl)
			if err != nil {
				return err
			}
			a.printf("%s\n", tok)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	return cmd
}
