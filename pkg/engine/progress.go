package engine

// Stage is one phase of an analysis run. Stages advance strictly in order;
// failed is reachable from any of them.
type Stage string

// Analysis run stages.
const (
	StageValidating Stage = "validating"
	StageCloning    Stage = "cloning"
	StageAnalyzing  Stage = "analyzing"
	StageGenerating Stage = "generating"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Reporter receives progress updates during a run. Percent is 0-100 within
// the current stage; details carries stage-specific values such as the commit
// hash being analyzed. Reporters must be fast: they are invoked synchronously
// from the walk loop.
type Reporter func(stage Stage, percent int, message string, details map[string]any)

// nopReporter discards all updates.
func nopReporter(Stage, int, string, map[string]any) {}
