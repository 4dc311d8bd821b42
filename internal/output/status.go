package output

import (
	"context"
	"fmt"
	"time"
)

func StatusBar(ctx context.Context, refreshRate time.Duration, printF func()) {
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			printF()
		case <-ctx.Done():
			return
		}
	}
}

func PrettyProfilerStatus(goroutines int, eventsPerSec uint64, bufferUtilPercent int) string {
	return fmt.Sprintf("\r%-30s %-20s %-20s",
		fmt.Sprintf("Goroutines tracked: %4d", goroutines),
		fmt.Sprintf("Events/s: %6d", eventsPerSec),
		fmt.Sprintf("Buffer: [%s] %3d%%", ProgressBar(bufferUtilPercent, 10), bufferUtilPercent),
	)
}
