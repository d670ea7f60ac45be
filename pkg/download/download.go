// Package download fetches remote build artifacts for a DDK workspace.
//
// URLs are formed from a caller-supplied format string with {build_id},
// {build_target} and {filename} placeholders. Fetching goes through a
// configured helper command when one is set (so host credential helpers
// keep working), and falls back to a plain HTTP client otherwise.
package download

import (
	"context"
	"net/url"
	"os/exec"
	"strings"

	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/imroc/req/v3"
	"github.com/rs/zerolog"
)

// fakeBuildID is substituted into the URL format to probe whether the
// format actually consumes the build ID placeholder.
const fakeBuildID = "__FAKE_BUILD_NUMBER_PLACEHOLDER__"

// Options configures a Fetcher.
type Options struct {
	// BuildID identifies the remote build, e.g. "6148204". May be empty.
	BuildID string

	// BuildTarget is the build to download from, e.g. "kernel_aarch64".
	BuildTarget string

	// URLFormat is the endpoint format string with {build_id},
	// {build_target} and {filename} placeholders.
	URLFormat string

	// HelperCommand, when non-empty, is invoked as
	// `helper <url> <output>` instead of the built-in HTTP client.
	HelperCommand []string
}

// Fetcher downloads remote files named by a URL format string.
type Fetcher struct {
	opts   Options
	client *req.Client
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher for the given options.
func NewFetcher(opts Options, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		opts:   opts,
		client: req.C().SetUserAgent("ddkinit"),
		logger: logger,
	}
}

// URL returns the download URL for remoteFilename. It fails when the
// format string consumes a build ID that was never supplied; a format
// that ignores the build ID placeholder works without one.
func (f *Fetcher) URL(remoteFilename string) (string, error) {
	if f.opts.URLFormat == "" {
		return "", errors.New(errors.ErrURLUnresolved, "no URL format configured")
	}

	u := f.expand(f.opts.BuildID, remoteFilename)
	probe := f.expand(fakeBuildID, remoteFilename)
	if f.opts.BuildID == "" && u != probe {
		return "", errors.Newf(errors.ErrURLUnresolved,
			"URL for %s requires a build ID", remoteFilename)
	}
	return u, nil
}

// Fetch downloads remoteFilename to outFile. Errors carry ErrURLUnresolved
// when the URL cannot be formed (callers treat that as skippable) and
// ErrDownloadFailed when the transfer itself fails.
func (f *Fetcher) Fetch(ctx context.Context, remoteFilename, outFile string) error {
	u, err := f.URL(remoteFilename)
	if err != nil {
		return err
	}

	f.logger.Info().
		Str("url", u).
		Str("out", outFile).
		Msg("Downloading file")

	if len(f.opts.HelperCommand) > 0 {
		return f.fetchWithHelper(ctx, u, outFile)
	}
	return f.fetchHTTP(ctx, u, outFile)
}

// fetchWithHelper delegates the transfer to the configured helper command,
// which can rely on the host keychain for authentication.
func (f *Fetcher) fetchWithHelper(ctx context.Context, u, outFile string) error {
	args := append(f.opts.HelperCommand[1:], u, outFile)
	cmd := exec.CommandContext(ctx, f.opts.HelperCommand[0], args...)

	f.logger.Debug().
		Str("helper", f.opts.HelperCommand[0]).
		Strs("args", args).
		Msg("Invoking download helper")

	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, errors.ErrDownloadFailed,
			"download helper failed for %s", u).
			WithDetail("output", strings.TrimSpace(string(out)))
	}
	return nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, u, outFile string) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetOutputFile(outFile).
		Get(u)
	if err != nil {
		return errors.Wrapf(err, errors.ErrDownloadFailed, "failed to download %s", u)
	}
	if resp.IsErrorState() {
		return errors.Newf(errors.ErrDownloadFailed,
			"failed to download %s: %s", u, resp.Status)
	}
	return nil
}

// expand substitutes the format placeholders. The filename is escaped so
// path separators survive as %2F in endpoints that take it as a single
// URL segment.
func (f *Fetcher) expand(buildID, remoteFilename string) string {
	r := strings.NewReplacer(
		"{build_id}", buildID,
		"{build_target}", f.opts.BuildTarget,
		"{filename}", url.PathEscape(remoteFilename),
	)
	return r.Replace(f.opts.URLFormat)
}
