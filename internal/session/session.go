package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/githubapi"
	"github.com/temirov/gitsweep/internal/githubauth"
	"github.com/temirov/gitsweep/internal/metrics"
	"github.com/temirov/gitsweep/internal/report"
	"github.com/temirov/gitsweep/internal/utils"
)

const (
	repositoryNotConfiguredMessageConstant   = "repository not configured; pass --owner and --repository or set github.owner and github.repository"
	tokenMissingWarningMessageConstant       = "No GitHub token found; continuing without authentication, remote changes will likely be rejected"
	tokenSourceWarningMessageConstant        = "Unable to read configured token source"
	tokenResolvedMessageConstant             = "GitHub token resolved"
	metricsWriteWarningMessageConstant       = "Unable to write metrics textfile"
	metricsWrittenMessageConstant            = "Metrics written"
	clientCreationErrorTemplateConstant      = "unable to create GitHub client: %w"
	reportFormatErrorTemplateConstant        = "invalid output format: %w"
	metricsCreationErrorTemplateConstant     = "unable to initialize metrics: %w"
	reportRenderErrorTemplateConstant        = "unable to render report: %w"
	tokenOriginLogFieldConstant              = "origin"
	tokenEnvironmentVariableLogFieldConstant = "environment_variable"
	metricsFileLogFieldConstant              = "metrics_file"
	repositoryLogFieldConstant               = "repository"
)

// ErrRepositoryNotConfigured indicates that owner or repository name is missing.
var ErrRepositoryNotConfigured = errors.New(repositoryNotConfiguredMessageConstant)

// Clock abstracts the current time for metrics stamping.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Dependencies overrides collaborators during construction.
type Dependencies struct {
	Output              io.Writer
	TokenResolver       *githubauth.Resolver
	ClientConfiguration githubapi.ClientConfiguration
	Clock               Clock
}

// Session holds the collaborators a single command invocation needs.
type Session struct {
	Logger      *zap.Logger
	Repository  githubapi.RepositoryReference
	Client      *githubapi.Client
	Renderer    *report.Renderer
	Metrics     *metrics.Recorder
	metricsFile string
	clock       Clock
}

// Open resolves credentials, builds the API client, the report renderer and
// the metrics recorder. A missing token is only logged as a warning.
func Open(logger *zap.Logger, settings Settings, dependencies Dependencies) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	outputWriter := dependencies.Output
	if outputWriter == nil {
		outputWriter = os.Stdout
	}
	tokenResolver := dependencies.TokenResolver
	if tokenResolver == nil {
		tokenResolver = githubauth.NewResolver(nil, nil)
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	reportFormat, formatError := report.ParseFormat(settings.OutputFormat)
	if formatError != nil {
		return nil, fmt.Errorf(reportFormatErrorTemplateConstant, formatError)
	}

	resolution, resolutionError := tokenResolver.Resolve(githubauth.ResolutionRequest{
		ExplicitToken:   settings.GitHub.ExplicitToken,
		ConfiguredToken: settings.GitHub.Token,
		TokenSource:     settings.GitHub.TokenSource,
	})
	if resolutionError != nil {
		logger.Warn(tokenSourceWarningMessageConstant, zap.Error(resolutionError))
	}
	if resolution.Found() {
		logger.Debug(tokenResolvedMessageConstant,
			zap.String(tokenOriginLogFieldConstant, string(resolution.Origin)),
			zap.String(tokenEnvironmentVariableLogFieldConstant, resolution.EnvironmentVariable),
		)
	} else {
		logger.Warn(tokenMissingWarningMessageConstant)
	}

	clientConfiguration := dependencies.ClientConfiguration
	clientConfiguration.Token = resolution.Token
	if len(strings.TrimSpace(settings.GitHub.BaseURL)) > 0 {
		clientConfiguration.BaseURL = settings.GitHub.BaseURL
	}
	client, clientError := githubapi.NewClient(clientConfiguration)
	if clientError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplateConstant, clientError)
	}

	recorder, recorderError := metrics.NewRecorder()
	if recorderError != nil {
		return nil, fmt.Errorf(metricsCreationErrorTemplateConstant, recorderError)
	}

	return &Session{
		Logger: logger,
		Repository: githubapi.RepositoryReference{
			Owner: strings.TrimSpace(settings.GitHub.Owner),
			Name:  strings.TrimSpace(settings.GitHub.Repository),
		},
		Client:      client,
		Renderer:    report.NewRenderer(outputWriter, reportFormat, !color.NoColor),
		Metrics:     recorder,
		metricsFile: utils.ExpandHomeDirectory(strings.TrimSpace(settings.MetricsFile)),
		clock:       clock,
	}, nil
}

// OpenLocal prepares a session for commands that only touch the local
// filesystem. It resolves no credentials and builds no API client.
func OpenLocal(logger *zap.Logger, settings Settings, dependencies Dependencies) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	outputWriter := dependencies.Output
	if outputWriter == nil {
		outputWriter = os.Stdout
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	reportFormat, formatError := report.ParseFormat(settings.OutputFormat)
	if formatError != nil {
		return nil, fmt.Errorf(reportFormatErrorTemplateConstant, formatError)
	}
	recorder, recorderError := metrics.NewRecorder()
	if recorderError != nil {
		return nil, fmt.Errorf(metricsCreationErrorTemplateConstant, recorderError)
	}

	return &Session{
		Logger:      logger,
		Renderer:    report.NewRenderer(outputWriter, reportFormat, !color.NoColor),
		Metrics:     recorder,
		metricsFile: utils.ExpandHomeDirectory(strings.TrimSpace(settings.MetricsFile)),
		clock:       clock,
	}, nil
}

// RequireRepository fails when owner or repository name was not supplied.
func (session *Session) RequireRepository() error {
	if len(session.Repository.Owner) == 0 || len(session.Repository.Name) == 0 {
		return ErrRepositoryNotConfigured
	}
	return nil
}

// Finish renders the report sections and writes the metrics textfile when
// one is configured. A metrics write failure is logged, not returned.
func (session *Session) Finish(sections ...report.Section) error {
	if renderError := session.Renderer.Render(sections...); renderError != nil {
		return fmt.Errorf(reportRenderErrorTemplateConstant, renderError)
	}
	if len(session.metricsFile) == 0 {
		return nil
	}
	if writeError := session.Metrics.WriteTextfile(session.metricsFile, session.clock.Now()); writeError != nil {
		session.Logger.Warn(metricsWriteWarningMessageConstant, zap.String(metricsFileLogFieldConstant, session.metricsFile), zap.Error(writeError))
		return nil
	}
	session.Logger.Debug(metricsWrittenMessageConstant, zap.String(metricsFileLogFieldConstant, session.metricsFile), zap.String(repositoryLogFieldConstant, session.Repository.String()))
	return nil
}
