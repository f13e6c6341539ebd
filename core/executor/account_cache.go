package executor

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glacieros/lumen/core/state"
)

// hotAccountCacheSize bounds the executor's in-process account cache. 4096
// entries covers a committee-sized set of repeat senders comfortably without
// the cache itself becoming a memory concern.
const hotAccountCacheSize = 4096

// getAccount and setAccount are the executor's own entry points onto the
// Accounts table. The epoch controller's reward distribution also writes
// Accounts, through the State directly, so ExecuteBlock purges the cache
// after every epoch transition and after a failed commit. This relies on
// backend being mutated exclusively through one Executor instance per
// process.
func (e *Executor) getAccount(s *state.State, addr state.AccountAddr) state.AccountInfo {
	if info, ok := e.accounts.Get(addr); ok {
		e.metrics.accountCacheHits.Inc()
		return info
	}
	e.metrics.accountCacheMisses.Inc()
	info, _ := s.Accounts.Get(addr)
	e.accounts.Add(addr, info)
	return info
}

func (e *Executor) setAccount(s *state.State, addr state.AccountAddr, info state.AccountInfo) {
	s.Accounts.Set(addr, info)
	e.accounts.Add(addr, info)
}

func newAccountCache() *lru.Cache[state.AccountAddr, state.AccountInfo] {
	c, err := lru.New[state.AccountAddr, state.AccountInfo](hotAccountCacheSize)
	if err != nil {
		// Only returned for a non-positive size, which hotAccountCacheSize
		// never is.
		panic("executor: account cache: " + err.Error())
	}
	return c
}
