package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/fortytw2/leaktest"

	"github.com/robinvdvleuten/hstr/output"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestNoOpCollector(t *testing.T) {
	collector := FromContext(context.Background())

	timer := collector.Start("test")
	timer.Child("child").End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())

	_, ok := collector.(noOpCollector)
	assert.True(t, ok)
}

func TestWithCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	got, ok := FromContext(ctx).(*TimingCollector)
	assert.True(t, ok)
	assert.True(t, got == collector)
}

func TestTimingCollectorTree(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(10 * time.Millisecond)

	root := collector.Start("stats")
	load := root.Child("load")
	scan := load.Child("scan a.src")
	scan.End()
	load.End()
	report := collector.Start("report")
	report.End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	want := strings.Join([]string{
		"stats: 70ms",
		"├─ load: 30ms",
		"│  └─ scan a.src: 10ms",
		"└─ report: 10ms",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestTimingCollectorStyled(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(200 * time.Millisecond)

	root := collector.Start("watch")
	root.Child("rescan").End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, output.NewStyles(&buf))

	assert.Contains(t, buf.String(), "watch")
	assert.Contains(t, buf.String(), "rescan: 200ms")
}

func TestTimingCollectorOpenTimer(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(time.Second)

	collector.Start("never ended")

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, "never ended: 1.00s\n", buf.String())
}

func TestTimingCollectorEndIsIdempotent(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(5 * time.Millisecond)

	timer := collector.Start("once")
	timer.End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, "once: 5ms\n", buf.String())
}

func TestTimingCollectorConcurrentChildren(t *testing.T) {
	defer leaktest.Check(t)()

	collector := NewTimingCollector()
	root := collector.Start("load")

	const n = 32
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := root.Child(fmt.Sprintf("file %02d", i))
			child.Child("scan").End()
			child.End()
		}()
	}
	wg.Wait()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	out := buf.String()
	for i := range n {
		assert.Contains(t, out, fmt.Sprintf("file %02d", i))
	}
	assert.Equal(t, 1+2*n, strings.Count(out, "\n"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{time.Millisecond, "1ms"},
		{100 * time.Millisecond, "100ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.duration), "%v", tt.duration)
	}
}

func TestTimingCollectorEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}
