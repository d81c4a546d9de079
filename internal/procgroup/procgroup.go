// SPDX-License-Identifier: MIT

// Package procgroup spawns commands in their own process group so that a
// timed-out invocation can be killed as a whole. exec.CommandContext only
// signals the direct child; with sudo in front that kills sudo and orphans
// pwrstat, which keeps pwrstatd's socket busy until it exits on its own.
package procgroup

import "os/exec"

// Set makes cmd start as the leader of a new process group. It must be
// called before the command starts; Kill relies on it.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Kill forcefully terminates cmd's whole process group. A command that
// never started or whose group is already gone is not an error.
func Kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return kill(cmd.Process.Pid)
}
