package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neointegratech/portal-client/internal/api"
	"github.com/neointegratech/portal-client/internal/config"
	"github.com/neointegratech/portal-client/internal/session"
	"github.com/neointegratech/portal-client/internal/stubapi"
	"github.com/neointegratech/portal-client/internal/workflow"
	"github.com/neointegratech/portal-client/pkg/logger"
)

// app holds the wired components shared by all subcommands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *session.FileStore
	client   *api.Client
	sessions *session.Manager
	guard    *session.Guard
	flow     *workflow.Workflow
	notifier workflow.Notifier
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, err
	}

	store := session.NewFileStore(cfg.Token.Path)

	// The client reads the persisted token directly; the manager is the
	// only writer. The 401 hook points back at the manager once built.
	var sessions *session.Manager
	client := api.NewClient(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Tokens:  store,
		OnAuthReject: func() {
			if sessions != nil {
				sessions.HandleAuthReject()
			}
		},
		Logger: log,
	})

	sessions = session.NewManager(client.Auth(), store, log)
	sessions.Rehydrate()

	notifier := workflow.NewWriterNotifier(os.Stderr)
	flow := workflow.New(sessions, client.Orders(), client.Payments(), client.Subscriptions(), notifier, log)

	return &app{
		cfg:      cfg,
		logger:   log,
		store:    store,
		client:   client,
		sessions: sessions,
		guard:    session.NewGuard(sessions),
		flow:     flow,
		notifier: notifier,
	}, nil
}

// requireLogin runs the route guard for a protected command and turns a
// redirect into a user-facing hint.
func (a *app) requireLogin(target string) error {
	if err := a.guard.Check(target); err != nil {
		var redirect *session.LoginRedirect
		if errors.As(err, &redirect) {
			a.notifier.Error("please log in first")
			return fmt.Errorf("run `portal login` and retry (you were headed to %s)", redirect.Target)
		}
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Customer portal client: accounts, orders, payments",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newServicesCmd(),
		newCheckoutCmd(),
		newOrdersCmd(),
		newWatchCmd(),
		newSubscriptionsCmd(),
		newRenewCmd(),
		newStubCmd(),
	)
	return root
}

func newStubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stub",
		Short: "Run a local stub API server with canned fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			server := stubapi.New(stubapi.Options{
				SucceedAfterChecks: 3,
				Logger:             a.logger,
			})

			a.logger.Info("stub API listening", zap.String("addr", a.cfg.Stub.Addr))
			return http.ListenAndServe(a.cfg.Stub.Addr, server.Handler())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
