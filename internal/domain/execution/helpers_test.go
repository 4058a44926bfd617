package execution

import (
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
)

// configurableStep is a test step whose behavior is set per test.
type configurableStep struct {
	id      provision.StepID
	desc    string
	checkFn func(provision.RunContext) (provision.StepStatus, error)
	applyFn func(provision.RunContext) error
	checks  int
	applies int
}

func newConfigurableStep(id string) *configurableStep {
	return &configurableStep{
		id:   provision.MustNewStepID(id),
		desc: "step " + id,
	}
}

func (s *configurableStep) ID() provision.StepID { return s.id }
func (s *configurableStep) Description() string  { return s.desc }

func (s *configurableStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	s.checks++
	if s.checkFn != nil {
		return s.checkFn(ctx)
	}
	return provision.StatusNeedsApply, nil
}

func (s *configurableStep) Apply(ctx provision.RunContext) error {
	s.applies++
	if s.applyFn != nil {
		return s.applyFn(ctx)
	}
	return nil
}

func satisfied(provision.RunContext) (provision.StepStatus, error) {
	return provision.StatusSatisfied, nil
}

// scriptedGate answers prompts from a fixed list and records them.
type scriptedGate struct {
	answers map[string]bool
	prompts []string
}

func (g *scriptedGate) Confirm(prompt string) bool {
	g.prompts = append(g.prompts, prompt)
	for key, answer := range g.answers {
		if strings.Contains(prompt, key) {
			return answer
		}
	}
	return false
}

// recordingReporter records progress callbacks.
type recordingReporter struct {
	started  []int
	finished []provision.StepStatus
	totals   []int
}

func (r *recordingReporter) StepStarted(index, total int, _ Entry) {
	r.started = append(r.started, index)
	r.totals = append(r.totals, total)
}

func (r *recordingReporter) StepFinished(_, _ int, _ Entry, result StepResult) {
	r.finished = append(r.finished, result.Status())
}
