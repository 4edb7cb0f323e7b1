package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dslc/internal/buildpipeline"
	"dslc/internal/ui"
)

type buildOutcome struct {
	result buildpipeline.BuildResult
	err    error
}

func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	labels := make([]string, len(req.Files))
	for i, f := range req.Files {
		labels[i] = relPath(f)
	}
	go func() {
		reqCopy := *req
		reqCopy.Progress = relativeSink{next: buildpipeline.ChannelSink{Ch: events}}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The UI may quit early; keep the pipeline from blocking on sends.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

// relativeSink shortens event paths to match the labels shown by the UI.
type relativeSink struct {
	next buildpipeline.ProgressSink
}

func (s relativeSink) OnEvent(evt buildpipeline.Event) {
	if evt.File != "" {
		evt.File = relPath(evt.File)
	}
	s.next.OnEvent(evt)
}
