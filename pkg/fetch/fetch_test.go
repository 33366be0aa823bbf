package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcornish/rig/pkg/errors"
)

type fakeCommander struct {
	runs [][]string
	err  error
}

func (f *fakeCommander) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return nil, f.err
}

func (f *fakeCommander) Run(ctx context.Context, name string, args ...string) error {
	f.runs = append(f.runs, append([]string{name}, args...))
	return f.err
}

func stubLookPath(t *testing.T, found bool) {
	t.Helper()
	orig := LookPath
	LookPath = func(file string) (string, error) {
		if found {
			return "/usr/bin/" + file, nil
		}
		return "", os.ErrNotExist
	}
	t.Cleanup(func() { LookPath = orig })
}

// makeArchive builds a gzipped tarball with the forge convention of a
// single top-level directory.
func makeArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "dots-abc123/", Typeflag: tar.TypeDir, Mode: 0755,
	}))
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: "dots-abc123/" + name, Typeflag: tar.TypeReg,
			Mode: 0644, Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestFetchViaGit(t *testing.T) {
	stubLookPath(t, true)
	cmdr := &fakeCommander{}

	res, cleanup, err := Fetch(context.Background(), Options{
		URL:       "https://example.com/dots.git",
		Ref:       "v2",
		Commander: cmdr,
	})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "git", res.Strategy)
	require.Len(t, cmdr.runs, 2)
	assert.Equal(t, []string{"git", "clone", "https://example.com/dots.git", res.Dir}, cmdr.runs[0])
	assert.Equal(t, []string{"git", "-C", res.Dir, "checkout", "v2"}, cmdr.runs[1])
}

func TestFetchViaGitNoRef(t *testing.T) {
	stubLookPath(t, true)
	cmdr := &fakeCommander{}

	_, cleanup, err := Fetch(context.Background(), Options{
		URL:       "https://example.com/dots.git",
		Commander: cmdr,
	})
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, cmdr.runs, 1, "no checkout without a ref")
}

func TestFetchViaArchiveWhenGitMissing(t *testing.T) {
	stubLookPath(t, false)

	archive := makeArchive(t, map[string]string{
		"rig.toml":  "[packages]\nbase = ['git']\n",
		"zsh/zshrc": "export EDITOR=vim\n",
	})
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Write(archive)
	}))
	defer srv.Close()

	res, cleanup, err := Fetch(context.Background(), Options{
		Archive: srv.URL + "/archive/{ref}.tar.gz",
		Ref:     "main",
		Client:  srv.Client(),
	})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "archive", res.Strategy)
	assert.Equal(t, "/archive/main.tar.gz", requested)

	data, err := os.ReadFile(filepath.Join(res.Dir, "zsh", "zshrc"))
	require.NoError(t, err)
	assert.Equal(t, "export EDITOR=vim\n", string(data))
}

func TestFetchArchiveOnlyOverridesGit(t *testing.T) {
	stubLookPath(t, true)
	cmdr := &fakeCommander{}

	archive := makeArchive(t, map[string]string{"rig.toml": ""})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	res, cleanup, err := Fetch(context.Background(), Options{
		URL:         "https://example.com/dots.git",
		Archive:     srv.URL + "/archive/HEAD.tar.gz",
		ArchiveOnly: true,
		Commander:   cmdr,
		Client:      srv.Client(),
	})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "archive", res.Strategy)
	assert.Empty(t, cmdr.runs)
}

func TestFetchNothingAvailableIsBootstrapError(t *testing.T) {
	stubLookPath(t, false)

	_, cleanup, err := Fetch(context.Background(), Options{URL: "https://example.com/dots.git"})
	defer cleanup()

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBootstrap))
}

func TestFetchArchiveHTTPError(t *testing.T) {
	stubLookPath(t, false)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, cleanup, err := Fetch(context.Background(), Options{
		Archive: srv.URL + "/archive/HEAD.tar.gz",
		Client:  srv.Client(),
	})
	defer cleanup()

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFetch))
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "dots/../../evil", Typeflag: tar.TypeReg, Mode: 0644, Size: 4,
	}))
	_, err := tw.Write([]byte("boom"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	err = extractTarGz(&buf, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}

func TestExtractRejectsEscapingLinks(t *testing.T) {
	tests := []struct {
		name     string
		linkname string
	}{
		{"absolute target", "/etc/passwd"},
		{"relative traversal", "../../outside"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			gz := gzip.NewWriter(&buf)
			tw := tar.NewWriter(gz)
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name: "dots/link", Typeflag: tar.TypeSymlink,
				Linkname: tt.linkname, Mode: 0777,
			}))
			require.NoError(t, tw.Close())
			require.NoError(t, gz.Close())

			err := extractTarGz(&buf, t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "escapes")
		})
	}
}

func TestExtractAllowsInTreeLinks(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "dots/zshrc", Typeflag: tar.TypeReg, Mode: 0644, Size: 2,
	}))
	_, err := tw.Write([]byte("x\n"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "dots/zshrc.link", Typeflag: tar.TypeSymlink,
		Linkname: "zshrc", Mode: 0777,
	}))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dir := t.TempDir()
	require.NoError(t, extractTarGz(&buf, dir))

	target, err := os.Readlink(filepath.Join(dir, "zshrc.link"))
	require.NoError(t, err)
	assert.Equal(t, "zshrc", target)
}

func TestArchiveURL(t *testing.T) {
	assert.Equal(t, "https://x/archive/v2.tar.gz", archiveURL("https://x/archive/{ref}.tar.gz", "v2"))
	assert.Equal(t, "https://x/archive/HEAD.tar.gz", archiveURL("https://x/archive/{ref}.tar.gz", ""))
	assert.Equal(t, "https://x/fixed.tar.gz", archiveURL("https://x/fixed.tar.gz", "v2"))
}

func TestStripFirstComponent(t *testing.T) {
	assert.Equal(t, "zsh/zshrc", stripFirstComponent("dots-abc123/zsh/zshrc"))
	assert.Equal(t, "", stripFirstComponent("dots-abc123"))
	assert.Equal(t, ".", stripFirstComponent("dots-abc123/"))
}
