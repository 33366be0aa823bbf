package types

import (
	"fmt"
	"strings"
)

// DeployMode selects how a dotfile mapping is materialized in the home
// directory. The mode is an explicit per-mapping choice in the manifest,
// never inferred from the file type.
type DeployMode string

const (
	// ModeSymlink creates a symlink at the destination if none exists.
	ModeSymlink DeployMode = "symlink"
	// ModeCopy copies the source file, overwriting a destination that
	// differs.
	ModeCopy DeployMode = "copy"
	// ModeAppend appends the source content to the destination once,
	// keyed by the content's marker line.
	ModeAppend DeployMode = "append"
)

// ParseDeployMode validates a manifest mode string.
func ParseDeployMode(s string) (DeployMode, error) {
	switch DeployMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSymlink:
		return ModeSymlink, nil
	case ModeCopy:
		return ModeCopy, nil
	case ModeAppend:
		return ModeAppend, nil
	default:
		return "", fmt.Errorf("unknown deploy mode %q", s)
	}
}

// DotfileMapping pairs a source path in the dotfiles tree with a
// destination path under the home directory.
type DotfileMapping struct {
	// Source is relative to the dotfiles root.
	Source string
	// Dest may contain ~ and environment variables.
	Dest string
	Mode DeployMode
}

// AppendBlock is a text block appended to a target file at most once.
type AppendBlock struct {
	Target  string
	Content string
}

// Marker returns the first non-blank line of the block's content. A
// target file already containing this exact line is treated as having
// the block applied.
func (b AppendBlock) Marker() string {
	for _, line := range strings.Split(b.Content, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
