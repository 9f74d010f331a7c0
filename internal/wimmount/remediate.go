package wimmount

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/wimforge/wimforge/internal/hostprobe"
	"github.com/wimforge/wimforge/internal/logger"
)

// defaultSettleDelay is the pause after each mutating action. Filter
// registration and service starts complete asynchronously; reading OS
// state immediately afterwards observes the old world.
const defaultSettleDelay = 750 * time.Millisecond

// Outcome records what one remediation pass did. It feeds the diagnostic's
// Details verbatim.
type Outcome struct {
	Attempted    bool
	ActionsTaken []string
	// Reason explains why nothing was attempted (lock held, no runner).
	Reason string
}

// Remediator runs one ordered, low-risk repair pass when the filter is not
// loaded. It mutates shared OS state, so a cross-process file lock ensures
// two concurrent preflights never repair at the same time. It is never
// retried in a loop; latency stays bounded.
type Remediator struct {
	Runner      hostprobe.Runner
	Log         *logger.Logger
	SettleDelay time.Duration
	LockPath    string
}

// NewRemediator returns a Remediator with production defaults.
func NewRemediator(runner hostprobe.Runner, log *logger.Logger) *Remediator {
	return &Remediator{
		Runner:      runner,
		Log:         log,
		SettleDelay: defaultSettleDelay,
		LockPath:    filepath.Join(os.TempDir(), "wimforge-wimmount-repair.lock"),
	}
}

type action struct {
	name string
	run  func(ctx context.Context) error
}

// Remediate executes the repair sequence appropriate for the evidence:
// correct a misconfigured altitude, load the filter, start the backing
// service. Individual action failures are logged and the sequence
// continues; the caller re-checks the primary signal afterwards regardless.
func (r *Remediator) Remediate(ctx context.Context, ev Evidence) Outcome {
	lock := flock.New(r.LockPath)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		reason := "another remediation is in progress"
		if err != nil {
			reason = fmt.Sprintf("could not acquire remediation lock: %v", err)
		}
		r.Log.WithCheck("wimmount").Warn(reason)
		return Outcome{Attempted: false, Reason: reason}
	}
	defer func() { _ = lock.Unlock() }()

	outcome := Outcome{Attempted: true}
	for _, act := range r.plan(ev) {
		log := r.Log.WithFields(map[string]any{"check": "wimmount", "action": act.name})
		log.Info("running repair action")

		if err := act.run(ctx); err != nil {
			log.Error(err, "repair action failed")
			outcome.ActionsTaken = append(outcome.ActionsTaken, fmt.Sprintf("%s (failed: %v)", act.name, err))
		} else {
			outcome.ActionsTaken = append(outcome.ActionsTaken, act.name)
		}

		r.settle(ctx)
	}
	return outcome
}

// plan chooses the ordered actions the evidence calls for.
func (r *Remediator) plan(ev Evidence) []action {
	var plan []action

	if ev.RegistryAltitude != "" && !ev.RegistryAltitudeOK {
		plan = append(plan, action{
			name: "correct altitude registry value",
			run: func(ctx context.Context) error {
				_, err := r.Runner.Run(ctx, "reg.exe", "add", altitudeKey,
					"/v", "Altitude", "/t", "REG_SZ", "/d", ExpectedAltitude, "/f")
				return err
			},
		})
	}

	plan = append(plan, action{
		name: "load filter driver",
		run: func(ctx context.Context) error {
			_, err := r.Runner.Run(ctx, "fltmc.exe", "load", ServiceName)
			return err
		},
	})

	if ev.Service.Exists && ev.Service.State != "RUNNING" {
		plan = append(plan, action{
			name: "start backing service",
			run: func(ctx context.Context) error {
				_, err := r.Runner.Run(ctx, "sc.exe", "start", ServiceName)
				return err
			},
		})
	}

	return plan
}

// settle sleeps the fixed delay unless the deadline arrives first.
func (r *Remediator) settle(ctx context.Context) {
	delay := r.SettleDelay
	if delay <= 0 {
		return
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
