//go:build unix

package volume

import "golang.org/x/sys/unix"

func diskUsage(path string) (*Usage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return nil, err
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	return &Usage{
		Total: total,
		Used:  total - free,
		Free:  stat.Bavail * uint64(stat.Bsize),
	}, nil
}
