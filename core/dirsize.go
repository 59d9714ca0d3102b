package core

import (
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// DirSize sums the sizes of all regular files below path.
func DirSize(path string) (int64, error) {
	var size atomic.Int64
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		size.Add(info.Size())
		return nil
	})

	return size.Load(), err
}
