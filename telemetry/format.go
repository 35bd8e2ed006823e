package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/hstr/output"
)

const slowOperation = 100 * time.Millisecond

// formatTimingTree writes the tree rooted at root:
//
//	stats: 125ms
//	├─ load: 85ms
//	│  ├─ scan main.src: 45ms
//	│  └─ scan util.src: 38ms
//	└─ report: 4ms
func formatTimingTree(w io.Writer, root *timerNode, now time.Time, styles *output.Styles) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.duration(now)))

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, now, styles)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, now time.Time, styles *output.Styles) {
	d := node.duration(now)

	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	if styles != nil {
		timing := formatDuration(d)
		if d >= slowOperation {
			timing = styles.Warning(timing)
		} else {
			timing = styles.Timing(timing, false)
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Dim(prefix+branch), node.name, timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, node.name, formatDuration(d))
	}

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, now, styles)
	}
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
