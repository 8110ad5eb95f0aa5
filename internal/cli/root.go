// Package cli is the `pensa` command-line interface.
//
// COMMAND TREE:
//
//	pensa
//	├── prayers
//	│   ├── list     [--filter wall|answered|my_prayers] [--page N] [--per-page N]
//	│   ├── get      ID
//	│   ├── create   --title T --content C [--category X] [--anonymous] [--status S]
//	│   ├── update   ID [--title T] [--content C] [--category X] [--anonymous] [--status S]
//	│   ├── delete   ID
//	│   └── pray     ID
//	└── whoami
//
// Every command talks to a PrayerService. The real one goes over HTTP; tests
// hand in a stub through Options.NewService.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pensaconnect/connect/internal/apperror"
	"github.com/pensaconnect/connect/internal/auth"
	"github.com/pensaconnect/connect/internal/config"
	"github.com/pensaconnect/connect/internal/model"
	"github.com/pensaconnect/connect/internal/repository"
	"github.com/pensaconnect/connect/internal/repository/httpapi"
	"github.com/pensaconnect/connect/internal/service"
)

// PrayerService is what the commands need from the service layer.
// *service.PrayerService satisfies it.
type PrayerService interface {
	Get(ctx context.Context, id int64) (model.PrayerRequest, error)
	List(ctx context.Context, opts repository.ListOptions) ([]model.PrayerRequest, error)
	Create(ctx context.Context, p service.NewPrayer) (model.PrayerRequest, error)
	Update(ctx context.Context, current model.PrayerRequest, u model.Update) (model.PrayerRequest, error)
	Delete(ctx context.Context, id int64) error
	TogglePrayer(ctx context.Context, id int64) (model.PrayerRequest, error)
}

var _ PrayerService = (*service.PrayerService)(nil)

// ServiceFactory builds the service once flags have been applied to cfg.
// session is nil when no token is configured.
type ServiceFactory func(cfg *config.Config, session *auth.Session, logger *slog.Logger) (PrayerService, error)

type Options struct {
	Config     *config.Config
	Logger     *slog.Logger
	Out        io.Writer
	NewService ServiceFactory   // nil = NewHTTPService
	Now        func() time.Time // nil = time.Now
}

// app is the state shared by every command of one invocation.
type app struct {
	opts    Options
	cfg     config.Config
	session *auth.Session
	svc     PrayerService

	apiURL   string
	token    string
	jsonMode bool
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.NewService == nil {
		opts.NewService = NewHTTPService
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Config == nil {
		opts.Config = &config.Config{APIURL: config.DefaultAPIURL, Timeout: config.DefaultTimeout}
	}

	a := &app{opts: opts, cfg: *opts.Config}

	root := &cobra.Command{
		Use:           "pensa",
		Short:         "PensaConnect from the terminal: browse, share and pray for prayer requests.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(opts.Out)

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides PENSA_API_URL)")
	root.PersistentFlags().StringVar(&a.token, "token", "", "access token (overrides PENSA_API_TOKEN)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "print raw JSON instead of a table")

	root.AddCommand(a.prayersCommand(), a.whoamiCommand())
	return root
}

// setup applies flag overrides, decodes the token and builds the service.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Flags().Changed("api-url") {
		if err := config.ValidateAPIURL(a.apiURL); err != nil {
			return apperror.ValidationFailed("api-url", err.Error())
		}
		a.cfg.APIURL = a.apiURL
	}
	if cmd.Flags().Changed("token") {
		a.cfg.Token = a.token
	}

	if a.cfg.Token != "" {
		session, err := auth.NewSession(a.cfg.Token)
		if err != nil {
			return apperror.Unauthorized(err.Error())
		}
		a.session = session
	}

	svc, err := a.opts.NewService(&a.cfg, a.session, a.opts.Logger)
	if err != nil {
		return err
	}
	a.svc = svc
	return nil
}

// NewHTTPService is the production ServiceFactory.
func NewHTTPService(cfg *config.Config, session *auth.Session, logger *slog.Logger) (PrayerService, error) {
	hc := httpapi.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
	}
	if session != nil {
		hc.TokenSource = session.TokenSource()
	}

	client, err := httpapi.New(hc, logger)
	if err != nil {
		return nil, err
	}
	return service.NewPrayerService(client, logger), nil
}

// Execute runs the CLI and returns the process exit code.
// Errors are printed as "Error: <message>" on errW.
func Execute(ctx context.Context, opts Options, args []string, errW io.Writer) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	root.SetErr(errW)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errW, "Error: %s\n", errorMessage(err))
		return 1
	}
	return 0
}

// errorMessage prefers the human-readable AppError message over the full
// wrapped chain ("getting prayer request 3: ...").
func errorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
