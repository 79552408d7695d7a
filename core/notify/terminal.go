package notify

import (
	"sync"

	"github.com/pterm/pterm"
)

// Terminal renders notifications with pterm: a progress bar for Progress, prefixed
// lines for Log and a titled box for Toast.
type Terminal struct {
	mu    sync.Mutex
	title string
	bar   *pterm.ProgressbarPrinter
}

func NewTerminal(progressTitle string) *Terminal {
	return &Terminal{title: progressTitle}
}

func (t *Terminal) Progress(percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar == nil {
		bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle(t.title).Start()
		if err != nil {
			return
		}
		t.bar = bar
	}

	if delta := percent - t.bar.Current; delta > 0 {
		t.bar.Add(delta)
	}

	if percent >= 100 {
		_, _ = t.bar.Stop()
		t.bar = nil
	}
}

func (t *Terminal) Log(level Level, msg string) {
	printer(level).Println(msg)
}

func (t *Terminal) Toast(level Level, title, msg string) {
	box := pterm.DefaultBox.WithTitle(title)
	box.Println(printer(level).Sprint(msg))
}

func printer(level Level) *pterm.PrefixPrinter {
	switch level {
	case Success:
		return &pterm.Success
	case Warning:
		return &pterm.Warning
	case Error:
		return &pterm.Error
	default:
		return &pterm.Info
	}
}
