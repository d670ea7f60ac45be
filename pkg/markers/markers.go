// Package markers maintains marker-delimited generated sections inside
// text files that are otherwise owned by the user. A section is a begin
// sentinel line, a caller-supplied body, and an end sentinel line; every
// byte outside the section is preserved verbatim.
package markers

import (
	stderrors "errors"
	"io/fs"
	"strings"

	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/types"
	"github.com/rs/zerolog"
)

// The well-known sentinel lines delimiting a generated section.
const (
	DefaultBegin = "### GENERATED SECTION - DO NOT MODIFY - BEGIN ###"
	DefaultEnd   = "### GENERATED SECTION - DO NOT MODIFY - END ###"
)

// filePerm is used when creating a target file or its temporary replacement.
const filePerm = 0644

// scanState tracks where the line scan is relative to the generated section.
type scanState int

const (
	// stateCopying passes original lines through to the output
	stateCopying scanState = iota
	// stateSkipping discards original lines inside the old section body
	stateSkipping
)

// Updater rewrites the generated section of target files. Each call to
// Update opens, scans, and atomically replaces the file; the Updater
// itself holds no file state between calls.
type Updater struct {
	fs     types.FS
	begin  string
	end    string
	logger zerolog.Logger
}

// NewUpdater creates an Updater using the default sentinel lines.
func NewUpdater(filesystem types.FS, logger zerolog.Logger) *Updater {
	return NewUpdaterWithMarkers(filesystem, logger, DefaultBegin, DefaultEnd)
}

// NewUpdaterWithMarkers creates an Updater with caller-chosen sentinels.
func NewUpdaterWithMarkers(filesystem types.FS, logger zerolog.Logger, begin, end string) *Updater {
	return &Updater{
		fs:     filesystem,
		begin:  begin,
		end:    end,
		logger: logger,
	}
}

// Update ensures path contains exactly one generated section whose body is
// replacement. A missing file is created with just the section; a file with
// no section gets one appended; an existing section has its body replaced.
// All other content keeps its original bytes and relative order, and the
// rewrite lands via a temporary file renamed into place.
//
// Marker nesting is not validated: a begin sentinel with no matching end
// swallows the rest of the file, and only the first begin sentinel receives
// the replacement body. Files ddkinit generates never contain such nesting.
func (u *Updater) Update(path string, replacement string) error {
	data, err := u.fs.ReadFile(path)
	exists := true
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, errors.ErrFileRead, "failed to read %s", path).
				WithDetail("path", path)
		}
		exists = false
		data = nil
	}

	if exists {
		u.logger.Info().Str("path", path).Msg("Updating file")
	} else {
		u.logger.Info().Str("path", path).Msg("Creating file")
	}

	var out strings.Builder
	state := stateCopying
	written := false

	for _, line := range splitKeepEnds(data) {
		if strings.Contains(line, u.end) {
			state = stateCopying
		}
		if strings.Contains(line, u.begin) {
			out.WriteString(withNewline(line))
			if !written {
				out.WriteString(replacement)
				out.WriteString("\n")
				written = true
			}
			state = stateSkipping
			continue
		}
		if state == stateCopying {
			out.WriteString(line)
		}
	}

	if !written {
		appendSection(&out, u.begin, replacement, u.end)
	}

	return u.replace(path, out.String())
}

// replace writes content to a temporary file next to path and renames it
// into place, so a crash mid-write never truncates the target.
func (u *Updater) replace(path, content string) error {
	tmp := path + ".tmp"
	if err := u.fs.WriteFile(tmp, []byte(content), filePerm); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write temporary file for %s", path).
			WithDetail("path", path)
	}
	if err := u.fs.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to replace %s", path).
			WithDetail("path", path)
	}
	return nil
}

// appendSection adds a fresh section to out, separating it from any
// preceding unterminated line.
func appendSection(out *strings.Builder, begin, replacement, end string) {
	if s := out.String(); s != "" && !strings.HasSuffix(s, "\n") {
		out.WriteString("\n")
	}
	out.WriteString(begin)
	out.WriteString("\n")
	out.WriteString(replacement)
	out.WriteString("\n")
	out.WriteString(end)
	out.WriteString("\n")
}

// splitKeepEnds splits data into lines with their terminators attached,
// so copied lines round-trip byte for byte. The final element has no
// terminator when the file does not end with a newline.
func splitKeepEnds(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// withNewline returns line terminated with a newline.
func withNewline(line string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}
	return line + "\n"
}
