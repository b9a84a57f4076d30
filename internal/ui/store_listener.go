package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"anygent/internal/store"
)

// storeRenderInterval bounds how often store changes trigger a redraw
const storeRenderInterval = 16 * time.Millisecond

// storeListener turns store notifications into storeChangedMsg. Notifications
// are coalesced in a one-slot channel so mutations never block, including
// mutations made from inside Update.
type storeListener struct {
	changed     chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
	unsubscribe func()
}

func newStoreListener(st *store.Store) *storeListener {
	l := &storeListener{
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	l.unsubscribe = st.Subscribe(func() {
		select {
		case l.changed <- struct{}{}:
		default:
		}
	})
	return l
}

// Wait returns a command that delivers the next storeChangedMsg. It must be
// re-armed after every delivery.
func (l *storeListener) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-l.changed:
		case <-l.done:
			return nil
		}

		select {
		case <-time.After(storeRenderInterval):
		case <-l.done:
			return nil
		}
		select {
		case <-l.changed:
		default:
		}
		return storeChangedMsg{}
	}
}

// Close unsubscribes from the store and releases a pending Wait
func (l *storeListener) Close() {
	l.closeOnce.Do(func() {
		l.unsubscribe()
		close(l.done)
	})
}
