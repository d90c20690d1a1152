package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/andresmejia3/warpframe/internal/store"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/google/uuid"
)

// ledgerEntry tracks a run in the store. A nil entry records nothing, so
// commands can use it unconditionally.
type ledgerEntry struct {
	db    *store.Store
	id    uuid.UUID
	start time.Time
}

// beginRun records the start of a run when a store is connected. Failures
// are reported and the run continues unrecorded.
func beginRun(ctx context.Context, db *store.Store, r store.Run) *ledgerEntry {
	if db == nil {
		return nil
	}
	inputID, err := utils.GenerateInputID(r.InputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Could not fingerprint input, run not recorded: %v\n", err)
		return nil
	}
	r.InputID = inputID

	id, err := db.StartRun(ctx, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Could not record run: %v\n", err)
		return nil
	}
	Log.Debug("run recorded", "run", id, "input", r.InputPath)
	return &ledgerEntry{db: db, id: id, start: time.Now()}
}

// finish stores the outcome. It uses a fresh context so that interrupted
// runs are still marked as failed.
func (e *ledgerEntry) finish(o store.RunOutcome) {
	if e == nil {
		return
	}
	o.Duration = time.Since(e.start)
	if err := e.db.FinishRun(context.Background(), e.id, o); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Could not finalize run %s: %v\n", e.id, err)
	}
}
