package smclient

import (
	"context"
	"time"
)

// WaitForJob polls the describe call for the named job until it reaches a
// terminal status, sleeping pollInterval between polls, and returns the final
// description. A zero interval polls back-to-back. There is no internal
// timeout; bound the wait through ctx. Describe errors are not retried here,
// they propagate to the caller unchanged.
//
// Whenever the job's secondary status transition list has grown since the
// previous poll, one progress line per poll is written to the client logger.
func (c *Client) WaitForJob(ctx context.Context, name string, kind JobKind, pollInterval time.Duration) (*JobDescription, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	// seen is loop-local so concurrent waits on different jobs never share
	// transition state.
	seen := 0
	for {
		desc, err := spec.describe(ctx, c, name)
		if err != nil {
			return nil, err
		}
		seen = c.reportProgress(desc, seen)
		if spec.terminal[desc.Status] {
			return desc, nil
		}
		if err := sleepContext(ctx, pollInterval); err != nil {
			return nil, err
		}
	}
}

// TuningJobStatus answers "is the tuning job done, and with what status".
// done is false while the job is still running, letting higher-level loops
// distinguish "in flight" from a definitive terminal status.
func (c *Client) TuningJobStatus(ctx context.Context, name string) (status string, done bool, err error) {
	desc, err := c.DescribeJob(ctx, name, KindTuning)
	if err != nil {
		return "", false, err
	}
	return desc.Status, desc.Terminal(), nil
}

// transitionsGrew implements the growth-only change rule for the append-only
// transition list: a change is reported iff the current list is non-empty and
// strictly longer than the previous one. An absent previous list counts as
// length zero; an empty current list is never a change, whatever came before.
func transitionsGrew(prev, current int) bool {
	return current > 0 && current > prev
}

// reportProgress emits one human-readable line when the sub-status message
// changed since the last poll and returns the updated transition count.
func (c *Client) reportProgress(desc *JobDescription, seen int) int {
	n := len(desc.Transitions)
	if !transitionsGrew(seen, n) {
		return seen
	}
	last := desc.Transitions[n-1]
	c.logger.Printf("%s", progressLine(desc.LastModified, last))
	return n
}

// progressLine formats "<UTC time> <status> - <message>" using the
// descriptor's own last-modified time, not the transition's timestamps.
func progressLine(lastModified time.Time, tr StatusTransition) string {
	return lastModified.UTC().Format("2006-01-02 15:04:05") + " " + tr.Status + " - " + tr.Message
}
