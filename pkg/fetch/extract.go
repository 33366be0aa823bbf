package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pcornish/rig/pkg/errors"
)

// downloadAndExtract streams a gzipped tarball from url into dir. The
// archive's single top-level directory (the forge convention for repo
// tarballs) is stripped so dir becomes the tree root.
func downloadAndExtract(ctx context.Context, client *http.Client, url, dir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrFetch, "invalid archive URL")
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFetch, "archive download failed: %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrFetch, "archive download failed: %s returned %s", url, resp.Status)
	}

	return extractTarGz(resp.Body, dir)
}

// extractTarGz unpacks a gzipped tar stream into dir, stripping the
// first path component and refusing entries that would escape dir.
func extractTarGz(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, errors.ErrFetch, "archive is not gzip")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrFetch, "corrupt archive")
		}

		rel := stripFirstComponent(hdr.Name)
		if rel == "" || rel == "." {
			continue
		}
		target := filepath.Join(dir, rel)
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(filepath.Separator)) {
			return errors.Newf(errors.ErrFetch, "archive entry escapes extraction directory: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrFetch, "cannot create %s", target)
			}

		case tar.TypeReg:
			if err := writeEntry(tr, target, hdr.FileInfo().Mode()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if !linkWithinDir(dir, target, hdr.Linkname) {
				return errors.Newf(errors.ErrFetch, "archive link escapes extraction directory: %s -> %s", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrFetch, "cannot create %s", filepath.Dir(target))
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return errors.Wrapf(err, errors.ErrFetch, "cannot link %s", target)
			}

		default:
			// Hard links, devices and the like have no business in a
			// dotfiles archive.
			return errors.Newf(errors.ErrFetch, "unsupported archive entry type %c: %s", hdr.Typeflag, hdr.Name)
		}
	}
}

func writeEntry(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFetch, "cannot create %s", filepath.Dir(target))
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return errors.Wrapf(err, errors.ErrFetch, "cannot create %s", target)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.Wrapf(err, errors.ErrFetch, "cannot write %s", target)
	}
	return f.Close()
}

// linkWithinDir reports whether a symlink at target pointing to
// linkname resolves inside dir. Absolute link targets are rejected
// outright; relative ones are resolved against the link's directory.
func linkWithinDir(dir, target, linkname string) bool {
	if filepath.IsAbs(linkname) {
		return false
	}
	resolved := filepath.Join(filepath.Dir(target), linkname)
	return strings.HasPrefix(resolved, filepath.Clean(dir)+string(filepath.Separator))
}

// stripFirstComponent drops the leading path element of a tar entry
// name ("repo-abc123/zsh/zshrc" -> "zsh/zshrc").
func stripFirstComponent(name string) string {
	name = strings.TrimPrefix(name, "./")
	i := strings.IndexByte(name, '/')
	if i < 0 {
		return ""
	}
	return filepath.Clean(name[i+1:])
}
