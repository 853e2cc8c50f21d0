package largefiles

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/execshell"
)

const (
	// DefaultThresholdMebibytes is the size above which a blob is reported.
	DefaultThresholdMebibytes = 5
	// DefaultThresholdBytes is DefaultThresholdMebibytes expressed in bytes.
	DefaultThresholdBytes = DefaultThresholdMebibytes * bytesPerMebibyteConstant

	gitRevParseSubcommandConstant         = "rev-parse"
	gitDirectoryFlagConstant              = "--git-dir"
	gitRevListSubcommandConstant          = "rev-list"
	gitObjectsFlagConstant                = "--objects"
	gitAllFlagConstant                    = "--all"
	gitCatFileSubcommandConstant          = "cat-file"
	gitBatchCheckFlagConstant             = "--batch-check=%(objectname) %(objecttype) %(objectsize)"
	blobObjectTypeConstant                = "blob"
	objectLineSeparatorConstant           = " "
	standardInputTerminatorConstant       = "\n"
	bytesPerMebibyteConstant              = 1024 * 1024
	executorNotConfiguredMessageConstant  = "git executor not configured"
	repositoryPathRequiredMessageConstant = "repository path required"
	negativeThresholdMessageConstant      = "size threshold must not be negative"
	nonFiniteThresholdMessageConstant     = "size threshold must be a finite number"
	oversizedThresholdMessageConstant     = "size threshold is too large"
	invalidThresholdTemplateConstant      = "invalid size threshold %q: %w"
	repositoryCheckErrorTemplateConstant  = "%s is not a git repository: %w"
	enumerateErrorTemplateConstant        = "unable to enumerate objects: %w"
	measureErrorTemplateConstant          = "unable to measure objects: %w"
	scanStartedMessageConstant            = "Scanning history for large objects"
	scanCompletedMessageConstant          = "Large object scan completed"
	noLargeObjectsMessageConstant         = "No objects above the size threshold"
	largeObjectFoundMessageConstant       = "Large object found"
	unparsableSizeMessageConstant         = "Skipping object with unreadable size"
	logFieldRepositoryPathConstant        = "repository_path"
	logFieldThresholdConstant             = "threshold"
	logFieldPathConstant                  = "path"
	logFieldSizeConstant                  = "size"
	logFieldObjectIDConstant              = "object_id"
	logFieldCountConstant                 = "count"
	logFieldLineConstant                  = "line"
)

var (
	// ErrExecutorNotConfigured indicates the scanner was constructed without a git executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrRepositoryPathRequired indicates Scan was called without a repository path.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
)

// GitExecutor is the subset of execshell.ShellExecutor used by the scanner.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Options configures a scan.
type Options struct {
	RepositoryPath string
	ThresholdBytes int64
}

// LargeFile is a blob in history whose size exceeds the threshold.
type LargeFile struct {
	Path      string `yaml:"path"`
	ObjectID  string `yaml:"object_id"`
	SizeBytes int64  `yaml:"size_bytes"`
}

// HumanSize renders the blob size with binary units.
func (largeFile LargeFile) HumanSize() string {
	return units.BytesSize(float64(largeFile.SizeBytes))
}

// Scanner finds large blobs anywhere in a repository's history.
type Scanner struct {
	logger   *zap.Logger
	executor GitExecutor
}

// NewScanner constructs a Scanner.
func NewScanner(logger *zap.Logger, executor GitExecutor) (*Scanner, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{logger: logger, executor: executor}, nil
}

// ParseThreshold converts a size threshold to bytes. A plain number is read
// as mebibytes; anything else must be a size string such as "512KB" or "10MiB".
func ParseThreshold(value string) (int64, error) {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return DefaultThresholdBytes, nil
	}

	if mebibytes, parseError := strconv.ParseFloat(trimmedValue, 64); parseError == nil {
		if math.IsNaN(mebibytes) || math.IsInf(mebibytes, 0) {
			return 0, fmt.Errorf(invalidThresholdTemplateConstant, value, errors.New(nonFiniteThresholdMessageConstant))
		}
		if mebibytes < 0 {
			return 0, fmt.Errorf(invalidThresholdTemplateConstant, value, errors.New(negativeThresholdMessageConstant))
		}
		thresholdBytes := mebibytes * bytesPerMebibyteConstant
		if thresholdBytes >= math.MaxInt64 {
			return 0, fmt.Errorf(invalidThresholdTemplateConstant, value, errors.New(oversizedThresholdMessageConstant))
		}
		return int64(thresholdBytes), nil
	}

	thresholdBytes, unitsError := units.RAMInBytes(trimmedValue)
	if unitsError != nil {
		return 0, fmt.Errorf(invalidThresholdTemplateConstant, value, unitsError)
	}
	if thresholdBytes < 0 {
		return 0, fmt.Errorf(invalidThresholdTemplateConstant, value, errors.New(negativeThresholdMessageConstant))
	}
	return thresholdBytes, nil
}

// Scan lists every object reachable from any ref, measures them in one
// batch, and returns the blobs strictly larger than the threshold sorted by
// size descending then path.
func (scanner *Scanner) Scan(executionContext context.Context, options Options) ([]LargeFile, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	scanner.logger.Info(scanStartedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.String(logFieldThresholdConstant, units.BytesSize(float64(options.ThresholdBytes))),
	)

	if _, checkError := scanner.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitDirectoryFlagConstant},
		WorkingDirectory: repositoryPath,
	}); checkError != nil {
		return nil, fmt.Errorf(repositoryCheckErrorTemplateConstant, repositoryPath, checkError)
	}

	listResult, listError := scanner.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevListSubcommandConstant, gitObjectsFlagConstant, gitAllFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if listError != nil {
		return nil, fmt.Errorf(enumerateErrorTemplateConstant, listError)
	}

	objectPaths, objectOrder := parseObjectListing(listResult.StandardOutput)
	if len(objectOrder) == 0 {
		scanner.logger.Info(noLargeObjectsMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
		return nil, nil
	}

	measureResult, measureError := scanner.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCatFileSubcommandConstant, gitBatchCheckFlagConstant},
		WorkingDirectory: repositoryPath,
		StandardInput:    []byte(strings.Join(objectOrder, standardInputTerminatorConstant) + standardInputTerminatorConstant),
	})
	if measureError != nil {
		return nil, fmt.Errorf(measureErrorTemplateConstant, measureError)
	}

	largeFiles := scanner.collectLargeFiles(measureResult.StandardOutput, objectPaths, options.ThresholdBytes)
	sort.SliceStable(largeFiles, func(leftIndex int, rightIndex int) bool {
		if largeFiles[leftIndex].SizeBytes != largeFiles[rightIndex].SizeBytes {
			return largeFiles[leftIndex].SizeBytes > largeFiles[rightIndex].SizeBytes
		}
		return largeFiles[leftIndex].Path < largeFiles[rightIndex].Path
	})

	if len(largeFiles) == 0 {
		scanner.logger.Info(noLargeObjectsMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
		return largeFiles, nil
	}
	for _, largeFile := range largeFiles {
		scanner.logger.Info(largeObjectFoundMessageConstant,
			zap.String(logFieldPathConstant, largeFile.Path),
			zap.String(logFieldSizeConstant, largeFile.HumanSize()),
			zap.String(logFieldObjectIDConstant, largeFile.ObjectID),
		)
	}
	scanner.logger.Info(scanCompletedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.Int(logFieldCountConstant, len(largeFiles)),
	)
	return largeFiles, nil
}

// parseObjectListing keeps objects that carry a path, in listing order.
func parseObjectListing(output string) (map[string]string, []string) {
	objectPaths := map[string]string{}
	var objectOrder []string

	lineScanner := bufio.NewScanner(strings.NewReader(output))
	lineScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineScanner.Scan() {
		line := strings.TrimSpace(lineScanner.Text())
		objectID, objectPath, hasPath := strings.Cut(line, objectLineSeparatorConstant)
		if !hasPath || len(strings.TrimSpace(objectPath)) == 0 {
			continue
		}
		if _, seen := objectPaths[objectID]; seen {
			continue
		}
		objectPaths[objectID] = objectPath
		objectOrder = append(objectOrder, objectID)
	}
	return objectPaths, objectOrder
}

func (scanner *Scanner) collectLargeFiles(output string, objectPaths map[string]string, thresholdBytes int64) []LargeFile {
	largeFiles := []LargeFile{}

	lineScanner := bufio.NewScanner(strings.NewReader(output))
	for lineScanner.Scan() {
		fields := strings.Fields(lineScanner.Text())
		if len(fields) != 3 || fields[1] != blobObjectTypeConstant {
			continue
		}
		objectSize, sizeError := strconv.ParseInt(fields[2], 10, 64)
		if sizeError != nil {
			scanner.logger.Warn(unparsableSizeMessageConstant, zap.String(logFieldLineConstant, lineScanner.Text()), zap.Error(sizeError))
			continue
		}
		if objectSize <= thresholdBytes {
			continue
		}
		objectPath, known := objectPaths[fields[0]]
		if !known {
			continue
		}
		largeFiles = append(largeFiles, LargeFile{Path: objectPath, ObjectID: fields[0], SizeBytes: objectSize})
	}
	return largeFiles
}
