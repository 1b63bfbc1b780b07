// Command auditctl is the command-line front end for an auditdesk server.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/session"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:8080"

var (
	apiClient   *client.Client
	log         *logrus.Logger
	flagURL     string
	flagToken   string
	flagFmt     string
	flagProfile string
	flagVerbose bool
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("auditctl version %s (commit: %s, built: %s)", version, commit, buildDate)
	}

	return fmt.Sprintf("auditctl version %s-dev", version)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "auditctl",
		Short:   "auditctl manages entities, plans, audits and findings on an auditdesk server",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(flagFmt); err != nil {
				return err
			}

			resolveConfig()

			log = newLogger(cmd.ErrOrStderr(), flagVerbose)
			apiClient = client.New(flagURL, client.WithToken(flagToken))

			return nil
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&flagURL, "url", defaultURL, "auditdesk server URL (env: AUDITDESK_URL)")
	pf.StringVar(&flagToken, "token", "", "Bearer token (env: AUDITDESK_TOKEN)")
	pf.StringVar(&flagFmt, "format", "table", "Output format: json|table|quiet")
	pf.StringVar(&flagProfile, "profile", "", "Config profile (default: active_profile)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newLoginCmd(),
		newSignUpCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newWatchCmd(),
		newDashboardCmd(),
		newActivityCmd(),
		newRolesCmd(),
		newEntityCmd(),
		newPlanCmd(),
		newAuditCmd(),
		newFindingCmd(),
		newRecommendationCmd(),
		newUserCmd(),
	)

	return root
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.WarnLevel)

	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}

	return l
}

// newSession builds an auth context over the shared API client.
func newSession() *session.Context {
	return session.New(session.NewClientProvider(apiClient, log), log)
}

// apiErr wraps a failed call with the server's message.
func apiErr(action string, err error) error {
	return fmt.Errorf("%s: %s", action, client.ErrorMessage(err, "request failed"))
}
