package state

import (
	"time"

	"tsvr/incremental"
)

// newLocalEnv creates a new LocalEnv with a fresh incremental builder and
// nothing else wired up yet; cmd/tsvr attaches the compile actor, watcher,
// and config once they're constructed from CLI flags.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start:   time.Now(),
		Builder: incremental.New(),
	}
}
