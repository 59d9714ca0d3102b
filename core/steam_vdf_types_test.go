package core

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryFoldersVDF = `"libraryfolders"
{
	"0"
	{
		"path"		"/home/user/.local/share/Steam"
		"label"		""
		"apps"
		{
			"400"		"4294967296"
			"220"		"13421772800"
		}
	}
	"1"
	{
		"path"		"/mnt/games/SteamLibrary"
		"apps"
		{
			"105600"		"1"
		}
	}
	"10"
	{
		"path"		"/mnt/extra"
	}
	"2"
	{
		"label"		"no path"
	}
}
`

func TestReadLibraryFolders(t *testing.T) {
	main := filepath.Join("/home/user/.local/share/Steam", "steamapps")

	t.Run("current format", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(main, libraryFoldersFile), []byte(libraryFoldersVDF), 0o644))

		folders, err := ReadLibraryFolders(fsys, main)
		require.NoError(t, err)
		require.Len(t, folders, 3)
		assert.Equal(t, LibraryFolder{Path: "/home/user/.local/share/Steam"}, folders[0])
		assert.Equal(t, LibraryFolder{Path: "/mnt/games/SteamLibrary"}, folders[1])
		assert.Equal(t, LibraryFolder{Path: "/mnt/extra"}, folders[2])
	})

	t.Run("old format", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		content := "\"LibraryFolders\"\n{\n\t\"TimeNextStatsReport\"\t\t\"1234\"\n\t\"ContentStatsID\"\t\t\"-1\"\n\t\"1\"\t\t\"/mnt/games/SteamLibrary\"\n}\n"
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(main, libraryFoldersFile), []byte(content), 0o644))

		folders, err := ReadLibraryFolders(fsys, main)
		require.NoError(t, err)
		assert.Equal(t, []LibraryFolder{{Path: "/mnt/games/SteamLibrary"}}, folders)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadLibraryFolders(afero.NewMemMapFs(), main)
		assert.Error(t, err)
	})

	t.Run("wrong block", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(main, libraryFoldersFile), []byte("\"AppState\"\n{\n\"appid\" \"1\"\n}\n"), 0o644))

		_, err := ReadLibraryFolders(fsys, main)
		assert.Error(t, err)
	})
}

func TestLibraryRoots(t *testing.T) {
	main := filepath.Join("/home/user/.local/share/Steam", "steamapps")

	t.Run("with library folders", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(main, libraryFoldersFile), []byte(libraryFoldersVDF), 0o644))

		assert.Equal(t, []string{
			main,
			filepath.Join("/mnt/games/SteamLibrary", "steamapps"),
			filepath.Join("/mnt/extra", "steamapps"),
		}, LibraryRoots(fsys, main))
	})

	t.Run("without library folders", func(t *testing.T) {
		assert.Equal(t, []string{main}, LibraryRoots(afero.NewMemMapFs(), main))
	})
}
