package smclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// streamCursor tracks one log stream's continuation token. Cursors are
// created lazily as streams appear (multi-instance jobs fan out one stream
// per instance) and are never merged or dropped while the job runs.
type streamCursor struct {
	name  string
	token *string
}

// logTailer holds the per-call state of one streaming session: the cursor
// map plus stream discovery order. Nothing else mutates it, so no locking.
type logTailer struct {
	c       *Client
	group   string
	prefix  string
	cursors map[string]*streamCursor
	order   []string
}

// StreamLogs writes the job's log lines to the client's log output as they
// become available. With wait=false it performs a single pass over the
// streams that exist right now and returns a nil description. With wait=true
// it alternates draining log events with polling job status until the job is
// terminal, then drains every known stream exactly once more to catch events
// emitted between the terminal observation and the last fetch, and returns
// the final description.
//
// Within one stream events are emitted in the order the store returns them;
// across streams the engine interleaves by discovery order, so cross-stream
// temporal ordering is not guaranteed.
func (c *Client) StreamLogs(ctx context.Context, name string, kind JobKind, wait bool, pollInterval time.Duration) (*JobDescription, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	t := &logTailer{
		c:       c,
		group:   spec.logGroup,
		prefix:  name + "/",
		cursors: make(map[string]*streamCursor),
	}
	if kind == KindTuning || kind == KindAutoML {
		// Child training jobs are named "<parent>-..." rather than
		// "<parent>/...".
		t.prefix = name + "-"
	}

	seen := 0
	for {
		if err := t.drainAll(ctx); err != nil {
			return nil, err
		}
		if !wait {
			return nil, nil
		}

		desc, err := spec.describe(ctx, c, name)
		if err != nil {
			return nil, err
		}
		seen = c.reportProgress(desc, seen)
		if spec.terminal[desc.Status] {
			// Final drain. One pass only: streams appearing after this
			// point are abandoned rather than retried without bound.
			if err := t.drainAll(ctx); err != nil {
				return nil, err
			}
			return desc, nil
		}
		if err := sleepContext(ctx, pollInterval); err != nil {
			return nil, err
		}
	}
}

// drainAll discovers any new streams and drains each known stream in
// discovery order.
func (t *logTailer) drainAll(ctx context.Context) error {
	if err := t.discover(ctx); err != nil {
		return err
	}
	for _, name := range t.order {
		if err := t.drainStream(ctx, t.cursors[name]); err != nil {
			return err
		}
	}
	return nil
}

// discover lists streams under the group with the job-name prefix. A log
// group that does not exist yet reads as zero streams this round; jobs may
// run for a while before their group appears.
func (t *logTailer) discover(ctx context.Context) error {
	var next *string
	for {
		out, err := t.c.logs.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
			LogGroupName:        aws.String(t.group),
			LogStreamNamePrefix: aws.String(t.prefix),
			OrderBy:             cwltypes.OrderByLogStreamName,
			NextToken:           next,
		})
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return fmt.Errorf("describe log streams %s%s: %w", t.group, t.prefix, err)
		}
		for _, s := range out.LogStreams {
			name := aws.ToString(s.LogStreamName)
			if name == "" {
				continue
			}
			if _, ok := t.cursors[name]; !ok {
				t.cursors[name] = &streamCursor{name: name}
				t.order = append(t.order, name)
			}
		}
		if out.NextToken == nil {
			return nil
		}
		next = out.NextToken
	}
}

// drainStream fetches everything the stream has past the cursor, emitting
// events in the order returned and advancing the continuation token. The
// store signals exhaustion by echoing the token back unchanged.
func (t *logTailer) drainStream(ctx context.Context, cur *streamCursor) error {
	for {
		out, err := t.c.logs.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(t.group),
			LogStreamName: aws.String(cur.name),
			NextToken:     cur.token,
			StartFromHead: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("get log events %s: %w", cur.name, err)
		}
		for _, ev := range out.Events {
			t.emit(cur.name, ev)
		}
		// Only the token echo ends the pass. An empty page whose token
		// advanced may still have events behind it.
		done := out.NextForwardToken == nil ||
			(cur.token != nil && *cur.token == *out.NextForwardToken)
		cur.token = out.NextForwardToken
		if done {
			return nil
		}
	}
}

func (t *logTailer) emit(stream string, ev cwltypes.OutputLogEvent) {
	fmt.Fprintf(t.c.logOut, "%s %s\n", shortStreamName(stream), aws.ToString(ev.Message))
}

// shortStreamName trims the job-name prefix so multi-instance output stays
// readable, keeping the instance-distinguishing suffix.
func shortStreamName(stream string) string {
	if i := strings.LastIndex(stream, "/"); i >= 0 && i < len(stream)-1 {
		return stream[i+1:]
	}
	return stream
}
