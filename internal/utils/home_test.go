package utils_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitsweep/internal/utils"
)

func TestExpandHomeDirectory(testInstance *testing.T) {
	homeDirectoryPath := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectoryPath)

	testCases := []struct {
		name         string
		input        string
		expectedPath string
	}{
		{name: "bare_tilde", input: "~", expectedPath: homeDirectoryPath},
		{name: "tilde_prefix", input: "~/repos/project", expectedPath: filepath.Join(homeDirectoryPath, "repos", "project")},
		{name: "other_user_unchanged", input: "~octocat/repos", expectedPath: "~octocat/repos"},
		{name: "absolute_path", input: "/srv/repository", expectedPath: "/srv/repository"},
		{name: "relative_path", input: "repository", expectedPath: "repository"},
		{name: "empty", input: "", expectedPath: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expectedPath, utils.ExpandHomeDirectory(testCase.input))
		})
	}
}
