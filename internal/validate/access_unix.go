//go:build unix

package validate

import "golang.org/x/sys/unix"

func accessWritable(path string) error {
	return unix.Access(path, unix.W_OK)
}
