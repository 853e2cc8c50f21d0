package refs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitsweep/internal/githubapi"
	"github.com/temirov/gitsweep/internal/refs"
)

const (
	testSubtestNameTemplateConstant = "%d_%s"
	testOwnerConstant               = "octocat"
	testRepositoryNameConstant      = "hello-world"
	testCutoffDaysConstant          = 180
)

var (
	testRepository = githubapi.RepositoryReference{Owner: testOwnerConstant, Name: testRepositoryNameConstant}
	testNow        = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)
	testCutoff     = testNow.Add(-testCutoffDaysConstant * 24 * time.Hour)
)

type fixedClock struct {
	instant time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.instant
}

type fakeReferenceClient struct {
	branches        []githubapi.Reference
	tags            []githubapi.Reference
	listError       error
	commitDates     map[string]time.Time
	dateErrors      map[string]error
	deleteErrors    map[string]error
	deletedBranches []string
	deletedTags     []string
}

func (client *fakeReferenceClient) ListBranches(context.Context, githubapi.RepositoryReference) ([]githubapi.Reference, error) {
	if client.listError != nil {
		return nil, client.listError
	}
	return client.branches, nil
}

func (client *fakeReferenceClient) ListTags(context.Context, githubapi.RepositoryReference) ([]githubapi.Reference, error) {
	if client.listError != nil {
		return nil, client.listError
	}
	return client.tags, nil
}

func (client *fakeReferenceClient) ResolveCommitDate(_ context.Context, _ githubapi.RepositoryReference, commitSHA string) (time.Time, error) {
	if dateError, exists := client.dateErrors[commitSHA]; exists {
		return time.Time{}, dateError
	}
	return client.commitDates[commitSHA], nil
}

func (client *fakeReferenceClient) DeleteBranch(_ context.Context, _ githubapi.RepositoryReference, branchName string) error {
	if deleteError, exists := client.deleteErrors[branchName]; exists {
		return deleteError
	}
	client.deletedBranches = append(client.deletedBranches, branchName)
	return nil
}

func (client *fakeReferenceClient) DeleteTag(_ context.Context, _ githubapi.RepositoryReference, tagName string) error {
	if deleteError, exists := client.deleteErrors[tagName]; exists {
		return deleteError
	}
	client.deletedTags = append(client.deletedTags, tagName)
	return nil
}

type recordingMetrics struct {
	stale    map[string]int
	deleted  map[string]int
	failures map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{stale: map[string]int{}, deleted: map[string]int{}, failures: map[string]int{}}
}

func (recorder *recordingMetrics) ReferencesStale(kind string, count int) {
	recorder.stale[kind] += count
}

func (recorder *recordingMetrics) ReferenceDeleted(kind string) {
	recorder.deleted[kind]++
}

func (recorder *recordingMetrics) OperationFailed(operation string) {
	recorder.failures[operation]++
}

func newBranchFixture() *fakeReferenceClient {
	return &fakeReferenceClient{
		branches: []githubapi.Reference{
			{Name: "main", CommitSHA: "sha-main"},
			{Name: "feature/old", CommitSHA: "sha-old"},
			{Name: "feature/boundary", CommitSHA: "sha-boundary"},
			{Name: "release/1.0", CommitSHA: "sha-release"},
			{Name: "feature/undated", CommitSHA: "sha-undated"},
			{Name: "feature/protected", CommitSHA: "sha-protected"},
		},
		commitDates: map[string]time.Time{
			"sha-main":      testNow.Add(-24 * time.Hour),
			"sha-old":       testCutoff.Add(-time.Hour),
			"sha-boundary":  testCutoff,
			"sha-release":   testCutoff.Add(-48 * time.Hour),
			"sha-protected": testCutoff.Add(-time.Hour),
		},
		dateErrors:   map[string]error{"sha-undated": githubapi.ErrCommitDateUnavailable},
		deleteErrors: map[string]error{},
	}
}

func TestServiceCleanupBranches(testInstance *testing.T) {
	testCases := []struct {
		name                    string
		dryRun                  bool
		exclude                 []string
		deleteErrors            map[string]error
		expectedStale           []string
		expectedDeleted         []string
		expectedFailureNames    []string
		expectedRetainedReasons map[string]refs.RetentionReason
	}{
		{
			name:                 "deletes only references older than the cutoff",
			expectedStale:        []string{"feature/old", "release/1.0", "feature/protected"},
			expectedDeleted:      []string{"feature/old", "release/1.0", "feature/protected"},
			expectedFailureNames: []string{"feature/undated"},
			expectedRetainedReasons: map[string]refs.RetentionReason{
				"main":             refs.RetentionReasonRecent,
				"feature/boundary": refs.RetentionReasonRecent,
			},
		},
		{
			name:                 "dry run never deletes",
			dryRun:               true,
			expectedStale:        []string{"feature/old", "release/1.0", "feature/protected"},
			expectedDeleted:      nil,
			expectedFailureNames: []string{"feature/undated"},
			expectedRetainedReasons: map[string]refs.RetentionReason{
				"main":             refs.RetentionReasonRecent,
				"feature/boundary": refs.RetentionReasonRecent,
			},
		},
		{
			name:                 "excluded names are retained",
			exclude:              []string{"release/*", "feature/prot*", "["},
			expectedStale:        []string{"feature/old"},
			expectedDeleted:      []string{"feature/old"},
			expectedFailureNames: []string{"feature/undated"},
			expectedRetainedReasons: map[string]refs.RetentionReason{
				"main":              refs.RetentionReasonRecent,
				"feature/boundary":  refs.RetentionReasonRecent,
				"release/1.0":       refs.RetentionReasonExcluded,
				"feature/protected": refs.RetentionReasonExcluded,
			},
		},
		{
			name:                 "delete failure does not stop the pass",
			deleteErrors:         map[string]error{"feature/old": errors.New("reference is protected")},
			expectedStale:        []string{"feature/old", "release/1.0", "feature/protected"},
			expectedDeleted:      []string{"release/1.0", "feature/protected"},
			expectedFailureNames: []string{"feature/old", "feature/undated"},
			expectedRetainedReasons: map[string]refs.RetentionReason{
				"main":             refs.RetentionReasonRecent,
				"feature/boundary": refs.RetentionReasonRecent,
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			client := newBranchFixture()
			for name, deleteError := range testCase.deleteErrors {
				client.deleteErrors[name] = deleteError
			}
			recorder := newRecordingMetrics()

			service, serviceError := refs.NewService(zap.NewNop(), client, fixedClock{instant: testNow}, recorder)
			require.NoError(testInstance, serviceError)

			result, cleanupError := service.Cleanup(context.Background(), refs.Options{
				Repository:      testRepository,
				Kind:            refs.KindBranch,
				CutoffDays:      testCutoffDaysConstant,
				DryRun:          testCase.dryRun,
				ExcludePatterns: testCase.exclude,
			})
			require.NoError(testInstance, cleanupError)
			require.True(testInstance, testCutoff.Equal(result.Cutoff))

			staleNames := make([]string, 0, len(result.Stale))
			for _, staleReference := range result.Stale {
				staleNames = append(staleNames, staleReference.Name)
			}
			require.Equal(testInstance, testCase.expectedStale, staleNames)
			require.Equal(testInstance, testCase.expectedDeleted, result.Deleted)
			require.Equal(testInstance, testCase.expectedDeleted, client.deletedBranches)

			failureNames := make([]string, 0, len(result.Failures))
			for _, failure := range result.Failures {
				failureNames = append(failureNames, failure.Name)
			}
			require.Equal(testInstance, testCase.expectedFailureNames, failureNames)

			retainedReasons := map[string]refs.RetentionReason{}
			for _, retained := range result.Retained {
				retainedReasons[retained.Name] = retained.Reason
			}
			require.Equal(testInstance, testCase.expectedRetainedReasons, retainedReasons)

			require.Equal(testInstance, len(testCase.expectedStale), recorder.stale["branch"])
			require.Equal(testInstance, len(testCase.expectedDeleted), recorder.deleted["branch"])
		})
	}
}

func TestServiceCleanupTagsUsesTagEndpoints(testInstance *testing.T) {
	client := &fakeReferenceClient{
		tags: []githubapi.Reference{
			{Name: "v0.1.0", CommitSHA: "sha-ancient"},
			{Name: "v2.0.0", CommitSHA: "sha-fresh"},
		},
		commitDates: map[string]time.Time{
			"sha-ancient": testNow.AddDate(-2, 0, 0),
			"sha-fresh":   testNow.AddDate(0, -1, 0),
		},
	}

	service, serviceError := refs.NewService(zap.NewNop(), client, fixedClock{instant: testNow}, nil)
	require.NoError(testInstance, serviceError)

	result, cleanupError := service.Cleanup(context.Background(), refs.Options{Repository: testRepository, Kind: refs.KindTag})
	require.NoError(testInstance, cleanupError)
	require.Equal(testInstance, []string{"v0.1.0"}, result.Deleted)
	require.Equal(testInstance, []string{"v0.1.0"}, client.deletedTags)
	require.Empty(testInstance, client.deletedBranches)
	require.True(testInstance, refs.Cutoff(testNow, refs.DefaultCutoffDays).Equal(result.Cutoff))
}

func TestServiceCleanupListingFailure(testInstance *testing.T) {
	client := &fakeReferenceClient{listError: errors.New("boom")}
	recorder := newRecordingMetrics()

	service, serviceError := refs.NewService(zap.NewNop(), client, fixedClock{instant: testNow}, recorder)
	require.NoError(testInstance, serviceError)

	_, cleanupError := service.Cleanup(context.Background(), refs.Options{Repository: testRepository, Kind: refs.KindBranch})
	require.Error(testInstance, cleanupError)
	require.Equal(testInstance, 1, recorder.failures["list_branches"])
}

func TestServiceCleanupLogsSummary(testInstance *testing.T) {
	testCases := []struct {
		name            string
		branches        []githubapi.Reference
		expectedMessage string
	}{
		{
			name:            "no stale references",
			branches:        []githubapi.Reference{{Name: "main", CommitSHA: "sha-main"}},
			expectedMessage: "No stale references found",
		},
		{
			name:            "stale references deleted",
			branches:        []githubapi.Reference{{Name: "feature/old", CommitSHA: "sha-old"}},
			expectedMessage: "Deleted stale references",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.InfoLevel)
			client := newBranchFixture()
			client.branches = testCase.branches

			service, serviceError := refs.NewService(zap.New(observerCore), client, fixedClock{instant: testNow}, nil)
			require.NoError(testInstance, serviceError)

			_, cleanupError := service.Cleanup(context.Background(), refs.Options{Repository: testRepository, Kind: refs.KindBranch})
			require.NoError(testInstance, cleanupError)

			entries := observedLogs.All()
			require.NotEmpty(testInstance, entries)
			require.Equal(testInstance, testCase.expectedMessage, entries[len(entries)-1].Message)
		})
	}
}

func TestNewServiceRequiresClient(testInstance *testing.T) {
	_, serviceError := refs.NewService(zap.NewNop(), nil, nil, nil)
	require.ErrorIs(testInstance, serviceError, refs.ErrClientNotConfigured)
}

func TestServiceRejectsUnknownKind(testInstance *testing.T) {
	service, serviceError := refs.NewService(zap.NewNop(), &fakeReferenceClient{}, nil, nil)
	require.NoError(testInstance, serviceError)

	_, cleanupError := service.Cleanup(context.Background(), refs.Options{Repository: testRepository, Kind: refs.Kind("note")})
	require.Error(testInstance, cleanupError)
}
