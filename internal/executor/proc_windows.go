//go:build windows

package executor

import "os/exec"

// configureProcessGroup keeps exec's default cancellation, which kills only
// the direct child on Windows.
func configureProcessGroup(cmd *exec.Cmd) {}
