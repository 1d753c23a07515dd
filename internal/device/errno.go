package device

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Reason turns a grab/open/read error into a short operator-facing cause.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, unix.EBUSY):
		return "grabbed by another process"
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return "permission denied (is the user in the 'input' group?)"
	case errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENOENT):
		return "device is gone"
	default:
		return err.Error()
	}
}

// isDisconnect reports whether a read error means the device went away
// rather than being closed by us.
func isDisconnect(err error) bool {
	return errors.Is(err, unix.ENODEV) || errors.Is(err, io.EOF) || errors.Is(err, unix.EIO)
}

func isClosed(err error) bool {
	return errors.Is(err, os.ErrClosed)
}
