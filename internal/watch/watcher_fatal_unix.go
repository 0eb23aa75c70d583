// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports whether err means the watcher cannot recover.
// On Linux these are inotify resource exhaustion errors: ENOSPC when
// fs.inotify.max_user_watches is exceeded, EMFILE/ENFILE for descriptor
// limits. Deep ROM trees are the usual way to hit the watch limit.
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
