// Package fetch obtains the dotfiles state for an update run. Git is
// the primary strategy (clone into a scratch directory, check out the
// requested ref); a tarball download is the fallback for hosts without
// a git client. Everything lands in a scratch directory the caller is
// responsible for cleaning up.
package fetch

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/pkgmgr"
)

// LookPath is stubbed in tests, like pkgmgr.LookPath.
var LookPath = exec.LookPath

// refPlaceholder marks where the ref goes in an archive URL template.
const refPlaceholder = "{ref}"

// Options configures a fetch.
type Options struct {
	// URL is the git remote the dotfiles state lives at.
	URL string
	// Archive is the tarball URL, optionally containing "{ref}".
	Archive string
	// Ref is the revision to check out; empty means the remote default.
	Ref string
	// ArchiveOnly forces the tarball strategy even when git is present.
	ArchiveOnly bool
	// Commander runs git; defaults to os/exec.
	Commander pkgmgr.Commander
	// Client performs the archive download; defaults to a client with a
	// sane timeout.
	Client *http.Client
}

// Result describes where the fetched state landed.
type Result struct {
	// Dir is the scratch directory holding the fetched tree.
	Dir string
	// Strategy is "git" or "archive".
	Strategy string
}

// Fetch obtains the dotfiles state into a fresh scratch directory and
// returns it along with a cleanup function. The cleanup function is
// safe to call even when Fetch returns an error.
func Fetch(ctx context.Context, opts Options) (*Result, func(), error) {
	logger := logging.GetLogger("fetch")

	cmdr := opts.Commander
	if cmdr == nil {
		cmdr = pkgmgr.NewCommander()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}

	dir, err := os.MkdirTemp("", "rig-fetch-")
	if err != nil {
		return nil, func() {}, errors.Wrap(err, errors.ErrFetch, "cannot create scratch directory")
	}
	cleanup := func() { os.RemoveAll(dir) }

	useGit := !opts.ArchiveOnly && gitAvailable() && opts.URL != ""

	switch {
	case useGit:
		logger.Info().Str("url", opts.URL).Str("ref", opts.Ref).Msg("fetching via git")
		if err := cloneAndCheckout(ctx, cmdr, opts.URL, opts.Ref, dir); err != nil {
			return nil, cleanup, err
		}
		return &Result{Dir: dir, Strategy: "git"}, cleanup, nil

	case opts.Archive != "":
		url := archiveURL(opts.Archive, opts.Ref)
		logger.Info().Str("url", url).Msg("fetching via archive")
		if err := downloadAndExtract(ctx, client, url, dir); err != nil {
			return nil, cleanup, err
		}
		return &Result{Dir: dir, Strategy: "archive"}, cleanup, nil

	default:
		return nil, cleanup, errors.New(errors.ErrBootstrap,
			"cannot fetch: no git client available and no archive URL configured")
	}
}

// gitAvailable reports whether a git client can be found on PATH.
func gitAvailable() bool {
	_, err := LookPath("git")
	return err == nil
}

// cloneAndCheckout clones the remote into dir and checks out the ref.
func cloneAndCheckout(ctx context.Context, cmdr pkgmgr.Commander, url, ref, dir string) error {
	if err := cmdr.Run(ctx, "git", "clone", url, dir); err != nil {
		return errors.Wrapf(err, errors.ErrFetch, "git clone %s failed", url)
	}
	if ref != "" {
		if err := cmdr.Run(ctx, "git", "-C", dir, "checkout", ref); err != nil {
			return errors.Wrapf(err, errors.ErrFetch, "git checkout %s failed", ref)
		}
	}
	return nil
}

// archiveURL substitutes the ref into the archive URL template. An
// empty ref resolves to HEAD, which forges accept in archive paths.
func archiveURL(template, ref string) string {
	if ref == "" {
		ref = "HEAD"
	}
	return strings.ReplaceAll(template, refPlaceholder, ref)
}
