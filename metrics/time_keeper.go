package metrics

import (
	"sync"
	"time"
)

// TimeKeeper remembers when an envelope was last consumed per emitter chain.
type TimeKeeper struct {
	mu            sync.Mutex
	lastClaimTime map[string]time.Time
}

func NewTimeKeeper() *TimeKeeper {
	return &TimeKeeper{
		lastClaimTime: make(map[string]time.Time),
	}
}

func (tk *TimeKeeper) RecordClaimTime(emitterChain string) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	tk.lastClaimTime[emitterChain] = time.Now()
}

// LastClaimTimes returns a copy of the recorded times.
func (tk *TimeKeeper) LastClaimTimes() map[string]time.Time {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	out := make(map[string]time.Time, len(tk.lastClaimTime))
	for k, v := range tk.lastClaimTime {
		out[k] = v
	}
	return out
}
