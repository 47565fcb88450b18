package termux

import (
	"context"
	"os/exec"
	"strings"
)

// Version is the library version.
const Version = "0.1.0"

// MarkerTool is the command used to check that the Termux:API tools are
// installed. It is present in every termux-api release.
const MarkerTool = "termux-battery-status"

// ToolAvailable checks if the Termux:API command-line tools are in PATH.
//
// This is a convenience function for startup checks. It only inspects
// the local machine; a device reached over SSH is checked with
// RemoteToolAvailable.
func ToolAvailable() bool {
	_, err := exec.LookPath(MarkerTool)
	return err == nil
}

// RemoteToolAvailable reports whether the tools can be found through c's
// transport by asking the shell on the other side.
func RemoteToolAvailable(ctx context.Context, c *Client) bool {
	out, err := c.Run(ctx, Invocation{"sh", "-c", "command -v " + MarkerTool})
	return err == nil && strings.TrimSpace(out) != ""
}

// MustToolAvailable panics if the Termux:API tools are not in PATH.
//
// Use in main() for fail-fast behavior:
//
//	func main() {
//		termux.MustToolAvailable()
//		...
//	}
func MustToolAvailable() {
	if !ToolAvailable() {
		panic(ErrToolNotFound)
	}
}
