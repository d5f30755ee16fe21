package session

// Listener observes the lines run by a Controller. Methods may be called
// from several goroutines when lines run concurrently.
type Listener interface {
	ShowFeedback(msg string)
	UpdateProgress(label string, percent int)
	// NotifyOfReturn receives the value of a line: a number, a message or
	// the path of the raster written.
	NotifyOfReturn(line int, value string)
	NotifyOfThreadComplete(line int)
	PassOnThreadException(line int, err error)
}

type nopListener struct{}

func (nopListener) ShowFeedback(string)              {}
func (nopListener) UpdateProgress(string, int)       {}
func (nopListener) NotifyOfReturn(int, string)       {}
func (nopListener) NotifyOfThreadComplete(int)       {}
func (nopListener) PassOnThreadException(int, error) {}
