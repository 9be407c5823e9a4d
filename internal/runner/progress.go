package runner

import (
	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

// Progress observes a run as it happens. Callbacks are invoked from the
// goroutine driving the run, in execution order.
type Progress interface {
	SuiteStarted(def suite.Definition)
	StepStarted(suiteID string, step suite.Step)
	StepFinished(suiteID string, result report.StepResult)
	SuiteFinished(result report.SuiteResult)
}

type progressGroup []Progress

func (g progressGroup) SuiteStarted(def suite.Definition) {
	for _, p := range g {
		p.SuiteStarted(def)
	}
}

func (g progressGroup) StepStarted(suiteID string, step suite.Step) {
	for _, p := range g {
		p.StepStarted(suiteID, step)
	}
}

func (g progressGroup) StepFinished(suiteID string, result report.StepResult) {
	for _, p := range g {
		p.StepFinished(suiteID, result)
	}
}

func (g progressGroup) SuiteFinished(result report.SuiteResult) {
	for _, p := range g {
		p.SuiteFinished(result)
	}
}
