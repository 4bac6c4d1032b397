package winedaemon

import "golang.org/x/sys/unix"

// dup2 is implemented with dup3, since dup2 is missing on some Linux
// architectures.
func dup2(oldfd int, newfd int) error {
	return unix.Dup3(oldfd, newfd, 0)
}
