package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespaceConstant                  = "gitsweep"
	referenceKindLabelConstant                = "kind"
	operationLabelConstant                    = "operation"
	referencesStaleMetricNameConstant         = "references_stale_total"
	referencesStaleHelpConstant               = "Stale branches and tags detected, by reference kind."
	referencesDeletedMetricNameConstant       = "references_deleted_total"
	referencesDeletedHelpConstant             = "Stale branches and tags deleted, by reference kind."
	operationFailuresMetricNameConstant       = "operation_failures_total"
	operationFailuresHelpConstant             = "Per-item and per-step failures that were logged and skipped, by operation."
	largeFilesMetricNameConstant              = "large_files_found_total"
	largeFilesHelpConstant                    = "Blobs in repository history larger than the configured threshold."
	largeFilesBytesMetricNameConstant         = "large_files_bytes_total"
	largeFilesBytesHelpConstant               = "Combined size in bytes of the large blobs reported."
	duplicatesFoundMetricNameConstant         = "duplicate_files_found_total"
	duplicatesFoundHelpConstant               = "Files whose content duplicates an earlier file."
	duplicatesDeletedMetricNameConstant       = "duplicate_files_deleted_total"
	duplicatesDeletedHelpConstant             = "Duplicate files removed from the working copy."
	gitignorePatternsMetricNameConstant       = "gitignore_patterns_added_total"
	gitignorePatternsHelpConstant             = "Ignore patterns appended to .gitignore files."
	repositoriesArchivedMetricNameConstant    = "repositories_archived_total"
	repositoriesArchivedHelpConstant          = "Repositories marked as archived."
	remoteFilesDeletedMetricNameConstant      = "remote_files_deleted_total"
	remoteFilesDeletedHelpConstant            = "Files removed through the contents API."
	pullRequestsClosedMetricNameConstant      = "pull_requests_closed_total"
	pullRequestsClosedHelpConstant            = "Pull requests closed."
	lastRunTimestampMetricNameConstant        = "last_run_timestamp_seconds"
	lastRunTimestampHelpConstant              = "Unix time at which the metrics were last written."
	registrationErrorTemplateConstant         = "unable to register metric: %w"
	textfileWriteErrorTemplateConstant        = "unable to write metrics textfile %s: %w"
	recorderNotConfiguredErrorMessageConstant = "metrics recorder not configured"
)

// ErrRecorderNotConfigured indicates a textfile write on a nil recorder.
var ErrRecorderNotConfigured = errors.New(recorderNotConfiguredErrorMessageConstant)

// Recorder owns an isolated Prometheus registry holding gitsweep counters.
// Every method is safe to call on a nil Recorder, which discards updates.
type Recorder struct {
	registry             *prometheus.Registry
	referencesStale      *prometheus.CounterVec
	referencesDeleted    *prometheus.CounterVec
	operationFailures    *prometheus.CounterVec
	largeFiles           prometheus.Counter
	largeFilesBytes      prometheus.Counter
	duplicatesFound      prometheus.Counter
	duplicatesDeleted    prometheus.Counter
	gitignorePatterns    prometheus.Counter
	repositoriesArchived prometheus.Counter
	remoteFilesDeleted   prometheus.Counter
	pullRequestsClosed   prometheus.Counter
	lastRunTimestamp     prometheus.Gauge
}

// NewRecorder constructs a Recorder with all counters registered.
func NewRecorder() (*Recorder, error) {
	recorder := &Recorder{
		registry:             prometheus.NewRegistry(),
		referencesStale:      newCounterVec(referencesStaleMetricNameConstant, referencesStaleHelpConstant, referenceKindLabelConstant),
		referencesDeleted:    newCounterVec(referencesDeletedMetricNameConstant, referencesDeletedHelpConstant, referenceKindLabelConstant),
		operationFailures:    newCounterVec(operationFailuresMetricNameConstant, operationFailuresHelpConstant, operationLabelConstant),
		largeFiles:           newCounter(largeFilesMetricNameConstant, largeFilesHelpConstant),
		largeFilesBytes:      newCounter(largeFilesBytesMetricNameConstant, largeFilesBytesHelpConstant),
		duplicatesFound:      newCounter(duplicatesFoundMetricNameConstant, duplicatesFoundHelpConstant),
		duplicatesDeleted:    newCounter(duplicatesDeletedMetricNameConstant, duplicatesDeletedHelpConstant),
		gitignorePatterns:    newCounter(gitignorePatternsMetricNameConstant, gitignorePatternsHelpConstant),
		repositoriesArchived: newCounter(repositoriesArchivedMetricNameConstant, repositoriesArchivedHelpConstant),
		remoteFilesDeleted:   newCounter(remoteFilesDeletedMetricNameConstant, remoteFilesDeletedHelpConstant),
		pullRequestsClosed:   newCounter(pullRequestsClosedMetricNameConstant, pullRequestsClosedHelpConstant),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespaceConstant,
			Name:      lastRunTimestampMetricNameConstant,
			Help:      lastRunTimestampHelpConstant,
		}),
	}

	collectorsToRegister := []prometheus.Collector{
		recorder.referencesStale,
		recorder.referencesDeleted,
		recorder.operationFailures,
		recorder.largeFiles,
		recorder.largeFilesBytes,
		recorder.duplicatesFound,
		recorder.duplicatesDeleted,
		recorder.gitignorePatterns,
		recorder.repositoriesArchived,
		recorder.remoteFilesDeleted,
		recorder.pullRequestsClosed,
		recorder.lastRunTimestamp,
	}
	for _, collector := range collectorsToRegister {
		if registrationError := recorder.registry.Register(collector); registrationError != nil {
			return nil, fmt.Errorf(registrationErrorTemplateConstant, registrationError)
		}
	}

	return recorder, nil
}

// Registry exposes the underlying registry for gathering.
func (recorder *Recorder) Registry() *prometheus.Registry {
	if recorder == nil {
		return nil
	}
	return recorder.registry
}

// ReferencesStale adds stale references of the given kind.
func (recorder *Recorder) ReferencesStale(kind string, count int) {
	if recorder == nil || count <= 0 {
		return
	}
	recorder.referencesStale.WithLabelValues(kind).Add(float64(count))
}

// ReferenceDeleted counts one deleted reference of the given kind.
func (recorder *Recorder) ReferenceDeleted(kind string) {
	if recorder == nil {
		return
	}
	recorder.referencesDeleted.WithLabelValues(kind).Inc()
}

// OperationFailed counts one skipped failure for the named operation.
func (recorder *Recorder) OperationFailed(operation string) {
	if recorder == nil {
		return
	}
	recorder.operationFailures.WithLabelValues(strings.TrimSpace(operation)).Inc()
}

// LargeFilesFound adds large blobs and their combined size.
func (recorder *Recorder) LargeFilesFound(count int, totalBytes int64) {
	if recorder == nil || count <= 0 {
		return
	}
	recorder.largeFiles.Add(float64(count))
	recorder.largeFilesBytes.Add(float64(totalBytes))
}

// DuplicatesFound adds detected duplicates and deletions.
func (recorder *Recorder) DuplicatesFound(found int, deleted int) {
	if recorder == nil {
		return
	}
	if found > 0 {
		recorder.duplicatesFound.Add(float64(found))
	}
	if deleted > 0 {
		recorder.duplicatesDeleted.Add(float64(deleted))
	}
}

// GitignorePatternsAdded adds appended ignore patterns.
func (recorder *Recorder) GitignorePatternsAdded(count int) {
	if recorder == nil || count <= 0 {
		return
	}
	recorder.gitignorePatterns.Add(float64(count))
}

// RepositoryArchived counts one archived repository.
func (recorder *Recorder) RepositoryArchived() {
	if recorder == nil {
		return
	}
	recorder.repositoriesArchived.Inc()
}

// RemoteFileDeleted counts one file removed through the contents API.
func (recorder *Recorder) RemoteFileDeleted() {
	if recorder == nil {
		return
	}
	recorder.remoteFilesDeleted.Inc()
}

// PullRequestClosed counts one closed pull request.
func (recorder *Recorder) PullRequestClosed() {
	if recorder == nil {
		return
	}
	recorder.pullRequestsClosed.Inc()
}

// WriteTextfile stamps the run time and writes the registry in the
// node-exporter textfile format. The write is atomic.
func (recorder *Recorder) WriteTextfile(filePath string, writeTime time.Time) error {
	if recorder == nil {
		return ErrRecorderNotConfigured
	}
	recorder.lastRunTimestamp.Set(float64(writeTime.Unix()))
	if writeError := prometheus.WriteToTextfile(filePath, recorder.registry); writeError != nil {
		return fmt.Errorf(textfileWriteErrorTemplateConstant, filePath, writeError)
	}
	return nil
}

func newCounter(name string, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespaceConstant,
		Name:      name,
		Help:      help,
	})
}

func newCounterVec(name string, help string, label string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespaceConstant,
		Name:      name,
		Help:      help,
	}, []string{label})
}
