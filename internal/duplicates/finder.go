package duplicates

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	defaultSkippedDirectoryConstant        = ".git"
	filesystemNotConfiguredMessageConstant = "filesystem not configured"
	rootRequiredMessageConstant            = "root directory required"
	rootMissingTemplateConstant            = "unable to scan %s: %w"
	rootNotDirectoryTemplateConstant       = "%s is not a directory"
	scanStartedMessageConstant             = "Scanning for duplicate files"
	unreadableEntryMessageConstant         = "Could not read file"
	duplicateFoundMessageConstant          = "Found duplicate"
	duplicateDeletedMessageConstant        = "Deleted duplicate file"
	deletionFailedMessageConstant          = "Unable to delete duplicate file"
	noDuplicatesMessageConstant            = "No duplicate files found"
	duplicatesKeptMessageConstant          = "Duplicate files found but not removed"
	duplicatesDeletedMessageConstant       = "Duplicate files removed"
	unreadableSummaryMessageConstant       = "Some files could not be processed"
	logFieldRootConstant                   = "root"
	logFieldPathConstant                   = "path"
	logFieldOriginalConstant               = "original"
	logFieldCountConstant                  = "count"
	logFieldPathsConstant                  = "paths"
)

var (
	// ErrFilesystemNotConfigured indicates the finder was constructed without a filesystem.
	ErrFilesystemNotConfigured = errors.New(filesystemNotConfiguredMessageConstant)
	// ErrRootRequired indicates Find was called without a root directory.
	ErrRootRequired = errors.New(rootRequiredMessageConstant)
)

// Options configures a duplicate scan.
type Options struct {
	Root            string
	Delete          bool
	SkipDirectories []string
}

// Duplicate is a file whose content matches an earlier file in walk order.
type Duplicate struct {
	Path         string `yaml:"path"`
	OriginalPath string `yaml:"original_path"`
	Hash         string `yaml:"hash"`
	SizeBytes    int64  `yaml:"size_bytes"`
	Deleted      bool   `yaml:"deleted"`
}

// PathFailure records a path that could not be read or removed.
type PathFailure struct {
	Path    string `yaml:"path"`
	Message string `yaml:"message"`
}

// Result captures the outcome of a duplicate scan.
type Result struct {
	Root             string        `yaml:"root"`
	Delete           bool          `yaml:"delete"`
	Duplicates       []Duplicate   `yaml:"duplicates"`
	Unreadable       []PathFailure `yaml:"unreadable,omitempty"`
	DeletionFailures []PathFailure `yaml:"deletion_failures,omitempty"`
}

// DeletedCount reports how many duplicates were removed.
func (result Result) DeletedCount() int {
	deletedCount := 0
	for _, duplicate := range result.Duplicates {
		if duplicate.Deleted {
			deletedCount++
		}
	}
	return deletedCount
}

// Finder detects files with identical content under a directory tree.
type Finder struct {
	logger     *zap.Logger
	filesystem afero.Fs
}

type candidateFile struct {
	path      string
	sizeBytes int64
}

// NewFinder constructs a Finder over the provided filesystem.
func NewFinder(logger *zap.Logger, filesystem afero.Fs) (*Finder, error) {
	if filesystem == nil {
		return nil, ErrFilesystemNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{logger: logger, filesystem: filesystem}, nil
}

// Find walks the tree in lexical order, hashes files that share a size with
// another file, and treats the first file with a given hash as the original.
// With Delete set, later copies are removed.
func (finder *Finder) Find(executionContext context.Context, options Options) (Result, error) {
	root := strings.TrimSpace(options.Root)
	if len(root) == 0 {
		return Result{}, ErrRootRequired
	}
	rootInfo, statError := finder.filesystem.Stat(root)
	if statError != nil {
		return Result{}, fmt.Errorf(rootMissingTemplateConstant, root, statError)
	}
	if !rootInfo.IsDir() {
		return Result{}, fmt.Errorf(rootNotDirectoryTemplateConstant, root)
	}

	skippedDirectories := options.SkipDirectories
	if skippedDirectories == nil {
		skippedDirectories = []string{defaultSkippedDirectoryConstant}
	}

	finder.logger.Info(scanStartedMessageConstant, zap.String(logFieldRootConstant, root))
	result := Result{Root: root, Delete: options.Delete, Duplicates: []Duplicate{}}

	candidates, sizeCounts, walkError := finder.collectCandidates(executionContext, root, skippedDirectories, &result)
	if walkError != nil {
		return result, walkError
	}

	originalsByHash := map[string]string{}
	for _, candidate := range candidates {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}
		if sizeCounts[candidate.sizeBytes] < 2 {
			continue
		}

		contentHash, hashError := finder.hashFile(candidate.path)
		if hashError != nil {
			finder.recordUnreadable(&result, candidate.path, hashError)
			continue
		}

		originalPath, seen := originalsByHash[contentHash]
		if !seen {
			originalsByHash[contentHash] = candidate.path
			continue
		}

		duplicate := Duplicate{Path: candidate.path, OriginalPath: originalPath, Hash: contentHash, SizeBytes: candidate.sizeBytes}
		if options.Delete {
			if removeError := finder.filesystem.Remove(candidate.path); removeError != nil {
				finder.logger.Warn(deletionFailedMessageConstant, zap.String(logFieldPathConstant, candidate.path), zap.Error(removeError))
				result.DeletionFailures = append(result.DeletionFailures, PathFailure{Path: candidate.path, Message: removeError.Error()})
			} else {
				duplicate.Deleted = true
				finder.logger.Info(duplicateDeletedMessageConstant, zap.String(logFieldPathConstant, candidate.path), zap.String(logFieldOriginalConstant, originalPath))
			}
		} else {
			finder.logger.Info(duplicateFoundMessageConstant, zap.String(logFieldPathConstant, candidate.path), zap.String(logFieldOriginalConstant, originalPath))
		}
		result.Duplicates = append(result.Duplicates, duplicate)
	}

	finder.logSummary(result)
	return result, nil
}

func (finder *Finder) collectCandidates(executionContext context.Context, root string, skippedDirectories []string, result *Result) ([]candidateFile, map[int64]int, error) {
	var candidates []candidateFile
	sizeCounts := map[int64]int{}

	walkError := afero.Walk(finder.filesystem, root, func(walkedPath string, info fs.FileInfo, entryError error) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if entryError != nil {
			finder.recordUnreadable(result, walkedPath, entryError)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if walkedPath != root && isSkipped(info.Name(), skippedDirectories) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		candidates = append(candidates, candidateFile{path: walkedPath, sizeBytes: info.Size()})
		sizeCounts[info.Size()]++
		return nil
	})
	return candidates, sizeCounts, walkError
}

func (finder *Finder) hashFile(filePath string) (string, error) {
	file, openError := finder.filesystem.Open(filePath)
	if openError != nil {
		return "", openError
	}
	defer file.Close()

	hasher := sha256.New()
	if _, copyError := io.Copy(hasher, file); copyError != nil {
		return "", copyError
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (finder *Finder) recordUnreadable(result *Result, entryPath string, cause error) {
	finder.logger.Warn(unreadableEntryMessageConstant, zap.String(logFieldPathConstant, entryPath), zap.Error(cause))
	result.Unreadable = append(result.Unreadable, PathFailure{Path: entryPath, Message: cause.Error()})
}

func (finder *Finder) logSummary(result Result) {
	switch {
	case len(result.Duplicates) == 0:
		finder.logger.Info(noDuplicatesMessageConstant, zap.String(logFieldRootConstant, result.Root))
	case !result.Delete:
		finder.logger.Info(duplicatesKeptMessageConstant, zap.Int(logFieldCountConstant, len(result.Duplicates)))
	default:
		finder.logger.Info(duplicatesDeletedMessageConstant, zap.Int(logFieldCountConstant, result.DeletedCount()))
	}

	if len(result.Unreadable) > 0 {
		unreadablePaths := make([]string, 0, len(result.Unreadable))
		for _, failure := range result.Unreadable {
			unreadablePaths = append(unreadablePaths, failure.Path)
		}
		finder.logger.Warn(unreadableSummaryMessageConstant, zap.Strings(logFieldPathsConstant, unreadablePaths))
	}
}

func isSkipped(directoryName string, skippedDirectories []string) bool {
	for _, skippedDirectory := range skippedDirectories {
		if directoryName == skippedDirectory {
			return true
		}
	}
	return false
}
