//go:build !unix

package convert

import "os/exec"

// killProcessGroup keeps the default cancellation, which kills the direct
// child only; WaitDelay bounds the wait for anything it started.
func killProcessGroup(cmd *exec.Cmd) {}
