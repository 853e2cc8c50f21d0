package session_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitsweep/internal/githubauth"
	"github.com/temirov/gitsweep/internal/report"
	"github.com/temirov/gitsweep/internal/session"
)

const (
	testOwnerConstant               = "octocat"
	testRepositoryConstant          = "hello-world"
	testMetricsFileNameConstant     = "gitsweep.prom"
	testMissingTokenMessageConstant = "No GitHub token found; continuing without authentication, remote changes will likely be rejected"
)

type fixedClock struct {
	instant time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.instant
}

func emptyEnvironment(string) (string, bool) {
	return "", false
}

func TestOpenWarnsWhenTokenMissing(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	outputBuffer := &bytes.Buffer{}

	sessionInstance, openError := session.Open(zap.New(observerCore), session.Settings{
		GitHub: session.GitHubSettings{Owner: testOwnerConstant, Repository: testRepositoryConstant},
	}, session.Dependencies{
		Output:        outputBuffer,
		TokenResolver: githubauth.NewResolver(emptyEnvironment, nil),
	})
	require.NoError(testInstance, openError)
	require.NoError(testInstance, sessionInstance.RequireRepository())
	require.Equal(testInstance, "octocat/hello-world", sessionInstance.Repository.String())

	warnings := observedLogs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(testInstance, warnings, 1)
	require.Equal(testInstance, testMissingTokenMessageConstant, warnings[0].Message)
}

func TestOpenRejectsUnknownOutputFormat(testInstance *testing.T) {
	_, openError := session.Open(zap.NewNop(), session.Settings{OutputFormat: "xml"}, session.Dependencies{
		TokenResolver: githubauth.NewResolver(emptyEnvironment, nil),
	})
	require.Error(testInstance, openError)
}

func TestRequireRepository(testInstance *testing.T) {
	sessionInstance, openError := session.Open(zap.NewNop(), session.Settings{
		GitHub: session.GitHubSettings{Owner: testOwnerConstant},
	}, session.Dependencies{TokenResolver: githubauth.NewResolver(emptyEnvironment, nil)})
	require.NoError(testInstance, openError)
	require.ErrorIs(testInstance, sessionInstance.RequireRepository(), session.ErrRepositoryNotConfigured)
}

func TestSettingsWithRepositoryOverridesNonEmptyValues(testInstance *testing.T) {
	base := session.Settings{GitHub: session.GitHubSettings{Token: "configured", Owner: "configured-owner", Repository: "configured-repository"}}

	updated := base.WithRepository("explicit", "", " other ")
	require.Equal(testInstance, "explicit", updated.GitHub.ExplicitToken)
	require.Equal(testInstance, "configured", updated.GitHub.Token)
	require.Equal(testInstance, "configured-owner", updated.GitHub.Owner)
	require.Equal(testInstance, "other", updated.GitHub.Repository)
}

func TestFinishRendersAndWritesMetrics(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	metricsFilePath := filepath.Join(testInstance.TempDir(), testMetricsFileNameConstant)

	sessionInstance, openError := session.Open(zap.NewNop(), session.Settings{
		GitHub:       session.GitHubSettings{Token: "configured", Owner: testOwnerConstant, Repository: testRepositoryConstant},
		OutputFormat: "table",
		MetricsFile:  metricsFilePath,
	}, session.Dependencies{
		Output:        outputBuffer,
		TokenResolver: githubauth.NewResolver(emptyEnvironment, nil),
		Clock:         fixedClock{instant: time.Unix(1700000000, 0)},
	})
	require.NoError(testInstance, openError)

	sessionInstance.Metrics.RepositoryArchived()
	require.NoError(testInstance, sessionInstance.Finish(report.Section{Title: "Archive", Status: report.StatusSuccess}))
	require.Contains(testInstance, outputBuffer.String(), "== Archive ==")

	contents, readError := os.ReadFile(metricsFilePath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(contents), "gitsweep_repositories_archived_total 1")
}

func TestOpenLocalSkipsCredentials(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	outputBuffer := &bytes.Buffer{}

	sessionInstance, openError := session.OpenLocal(zap.New(observerCore), session.Settings{}, session.Dependencies{Output: outputBuffer})
	require.NoError(testInstance, openError)
	require.Nil(testInstance, sessionInstance.Client)
	require.Zero(testInstance, observedLogs.Len())

	require.NoError(testInstance, sessionInstance.Finish(report.Section{Title: "Local", Status: report.StatusSuccess}))
	require.Contains(testInstance, outputBuffer.String(), "== Local ==")
}
