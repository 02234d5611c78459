package feed

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pollTimer is the single pending poll. Stopping it makes the waiting
// command return nil instead of a pollDueMsg.
type pollTimer struct {
	seq    uint64
	cancel context.CancelFunc
}

func (t *pollTimer) stop() {
	if t == nil || t.cancel == nil {
		return
	}
	t.cancel()
	t.cancel = nil
}

// schedulePoll replaces the pending poll with one due after PollInterval.
func (c *Controller) schedulePoll() tea.Cmd {
	if c.closed {
		return nil
	}
	c.poll.stop()

	c.pollSeq++
	ctx, cancel := context.WithCancel(c.ctx)
	c.poll = &pollTimer{seq: c.pollSeq, cancel: cancel}

	feed, seq, interval := c.id, c.pollSeq, c.cfg.PollInterval
	return func() tea.Msg {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-timer.C:
			return pollDueMsg{feed: feed, seq: seq}
		case <-ctx.Done():
			return nil
		}
	}
}
