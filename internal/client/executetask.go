package client

import (
	"github.com/fatih/color"
	"github.com/sergds/ccpdns/internal/executor"
	"github.com/sergds/ccpdns/internal/fastansi"
	"github.com/sergds/ccpdns/internal/steps"
)

// Execute runs a built task and draws its progress on sp. The collected summary is
// printed once the task ends, the task's error is returned.
func Execute(sp *fastansi.StatusPrinter, exec *executor.Executor) error {
	sp.PushLines(2)
	sp.Status(1, color.YellowString("Waiting for status..."))

	updates := make(chan *executor.ExecutorUpdate)
	done := make(chan []string)
	go func() {
		done <- Render(sp, updates)
	}()
	err := exec.Run(updates)
	close(updates)
	summary := <-done

	if len(summary) != 0 {
		sp.Println()
		sp.Println("Operation Summary:")
		for _, s := range summary {
			sp.Println(s)
		}
	}
	return err
}

// Render consumes updates until the channel is closed and returns the pushed summary lines.
func Render(sp *fastansi.StatusPrinter, updates <-chan *executor.ExecutorUpdate) []string {
	summary := make([]string, 0)
	for status := range updates {
		switch status.CurrentStep {
		case steps.STEP_ERROR:
			sp.Status(1, color.RedString(steps.DescribeState(steps.STEP_ERROR)))
			sp.Status(0, color.RedString(status.StepMessage))
			continue
		case steps.STEP_NOTIFY:
			sp.Status(0, color.BlueString(status.StepMessage))
			continue
		case steps.STEP_PUSH_SUMMARY:
			summary = append(summary, status.StepMessage)
			continue
		default:
			if desc := steps.DescribeState(status.CurrentStep); desc != "" {
				sp.Status(1, color.YellowString(desc+"..."))
			}
		}
		if status.StepMessage != "" {
			sp.Status(0, status.StepMessage)
		}
	}
	return summary
}
