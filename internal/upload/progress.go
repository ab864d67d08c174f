package upload

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// newProgressBar starts a byte-counting progress bar for one upload.
func newProgressBar(w io.Writer, name string, size int64) *pb.ProgressBar {
	bar := pb.Full.New(0)
	bar.SetTotal(size)
	bar.SetWriter(w)
	bar.Set(pb.Bytes, true)
	bar.Set("prefix", name+" ")
	return bar.Start()
}
