package main

import (
	"fmt"
	"io"
	"time"

	"dslc/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	for _, st := range []struct {
		stage buildpipeline.Stage
		label string
	}{
		{buildpipeline.StageCompile, "compiled"},
		{buildpipeline.StageWrite, "wrote"},
		{buildpipeline.StageCC, "cc"},
	} {
		if timings.Has(st.stage) {
			fmt.Fprintf(out, "%s %.1f ms\n", st.label, toMillis(timings.Duration(st.stage)))
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
