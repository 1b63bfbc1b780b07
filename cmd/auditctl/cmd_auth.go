package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/session"
	"github.com/persistorai/auditdesk/client/views"
)

var errNotSignedIn = errors.New("not signed in (run auditctl login)")

// readPassword returns the --password flag, then AUDITDESK_PASSWORD, then a
// line from in.
func readPassword(cmd *cobra.Command, in io.Reader) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}

	if pw := os.Getenv("AUDITDESK_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}

	return pw, nil
}

func printUser(cmd *cobra.Command, u *client.User) error {
	if flagFmt == "table" {
		name := ""
		if u.FullName != nil {
			name = *u.FullName
		}

		formatTable(cmd.OutOrStdout(), []string{"ID", "EMAIL", "NAME", "ROLE"},
			[][]string{{u.ID, u.Email, name, u.Role}})

		return nil
	}

	return output(cmd.OutOrStdout(), u, u.ID)
}

// persistToken stores the token the client now holds under the current profile.
func persistToken() error {
	path, err := saveSession(flagURL, apiClient.Token())
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	log.WithField("path", path).Debug("config saved")

	return nil
}

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s := newSession()
			if err := s.SignIn(cmd.Context(), email, pw); err != nil {
				return apiErr("login", err)
			}

			if err := persistToken(); err != nil {
				return err
			}

			return printUser(cmd, s.User())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account e-mail")
	cmd.Flags().String("password", "", "Password (env: AUDITDESK_PASSWORD; prompted when unset)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSignUpCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, cmd.InOrStdin())
			if err != nil {
				return err
			}

			req := &client.SignUpRequest{Email: email, Password: pw}
			if name != "" {
				req.FullName = &name
			}

			s := newSession()
			if err := s.SignUp(cmd.Context(), req); err != nil {
				return apiErr("sign up", err)
			}

			if err := persistToken(); err != nil {
				return err
			}

			return printUser(cmd, s.User())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account e-mail")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().String("password", "", "Password (env: AUDITDESK_PASSWORD; prompted when unset)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serverErr := newSession().SignOut(cmd.Context())

			if err := persistToken(); err != nil {
				return err
			}

			if serverErr != nil {
				return apiErr("logout", serverErr)
			}

			if flagFmt != "quiet" {
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			}

			return nil
		},
	}
}

// startSession restores the stored session. The returned cancel stops the
// session watch.
func startSession(ctx context.Context) (*session.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := newSession()

	if err := s.Start(ctx); err != nil {
		cancel()
		return nil, nil, apiErr("restore session", err)
	}

	if s.State() != session.Authenticated {
		cancel()
		return nil, nil, errNotSignedIn
	}

	return s, cancel, nil
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, stop, err := startSession(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()

			return printUser(cmd, s.User())
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow session changes until interrupted or signed out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			s, stop, err := startSession(ctx)
			if err != nil {
				return err
			}
			defer stop()

			out := cmd.OutOrStdout()
			ended := make(chan struct{})

			var once sync.Once

			u := s.User()
			fmt.Fprintf(out, "%s %s role=%s\n", s.State(), u.Email, u.Role)

			sub := s.Subscribe(func(state session.State, u *client.User) {
				if u == nil {
					once.Do(func() {
						fmt.Fprintln(out, state)
						close(ended)
					})

					return
				}

				fmt.Fprintf(out, "%s %s role=%s\n", state, u.Email, u.Role)
			})
			defer sub.Cancel()

			select {
			case <-ctx.Done():
			case <-ended:
			}

			return nil
		},
	}
}

func newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the roles that can be assigned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roles, err := apiClient.Auth.Roles(cmd.Context())
			if err != nil {
				return apiErr("list roles", err)
			}

			if roles == nil {
				roles = []client.Role{}
			}

			rows := make([][]string, len(roles))
			ids := make([]string, len(roles))

			for i, r := range roles {
				ids[i] = strconv.Itoa(r.ID)
				rows[i] = []string{ids[i], r.Name, strings.Join(r.Permissions, ",")}
			}

			return outputRows(cmd.OutOrStdout(), roles, []string{"ID", "NAME", "PERMISSIONS"}, rows, ids)
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts (admin only)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List users with their roles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printList(cmd, "users", views.Users(apiClient))
			},
		},
		newUserCreateCmd(),
		&cobra.Command{
			Use:   "assign-role <user-id> <role-id>",
			Short: "Replace a user's role",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				roleID, err := strconv.Atoi(args[1])
				if err != nil || roleID <= 0 {
					return fmt.Errorf("invalid role id %q: want a positive integer (see auditctl roles)", args[1])
				}

				u, err := apiClient.Users.AssignRole(cmd.Context(), args[0], roleID)
				if err != nil {
					return apiErr("assign role", err)
				}

				return printUser(cmd, u)
			},
		},
	)

	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with a profile and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, stop, err := startSession(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()

			req := &client.CreateUserRequest{Email: email, Password: pw}
			if name != "" {
				req.FullName = &name
			}

			if role != "" {
				req.Role = &role
			}

			u, err := s.CreateUser(cmd.Context(), req)
			if err != nil {
				return apiErr("create user", err)
			}

			return printUser(cmd, u)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account e-mail")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&role, "role", "", "Role name (default viewer)")
	cmd.Flags().String("password", "", "Initial password (env: AUDITDESK_PASSWORD; prompted when unset)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
