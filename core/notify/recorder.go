package notify

import (
	"sync"
)

type Line struct {
	Level Level
	Title string
	Msg   string
}

// Recorder keeps every notification in memory. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	progress []int
	logs     []Line
	toasts   []Line
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Progress(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, percent)
}

func (r *Recorder) Log(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, Line{Level: level, Msg: msg})
}

func (r *Recorder) Toast(level Level, title, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Line{Level: level, Title: title, Msg: msg})
}

func (r *Recorder) ProgressValues() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int{}, r.progress...)
}

func (r *Recorder) Logs() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line{}, r.logs...)
}

func (r *Recorder) Toasts() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line{}, r.toasts...)
}

// LogsAt returns the log lines of a single level
func (r *Recorder) LogsAt(level Level) []Line {
	var out []Line
	for _, l := range r.Logs() {
		if l.Level == level {
			out = append(out, l)
		}
	}
	return out
}
