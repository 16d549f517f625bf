package upload

import (
	"io"
)

// progressReader is a wrapper around an io.Reader that tracks the number of
// bytes read and triggers a percent callback.
//
// It caps at 99: the final 100 belongs to the caller, once the server has
// acknowledged the request, so percent never reads complete while the last
// bytes are still in flight.
type progressReader struct {
	reader      io.Reader
	bytesSent   int64
	totalSize   int64
	callback    ProgressFunc
	lastPercent int
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.bytesSent += int64(n)
	}

	if pr.callback != nil && pr.totalSize > 0 {
		percent := int(pr.bytesSent * 100 / pr.totalSize)
		if percent > 99 {
			percent = 99
		}
		if percent > pr.lastPercent {
			pr.lastPercent = percent
			pr.callback(percent)
		}
	}

	return n, err
}
