package tune

type Action string

const (
	ActionSet  Action = "set"
	ActionSkip Action = "skip"
	ActionFail Action = "fail"
)

// Outcome records one tuning decision. The run collects an Outcome per
// visited item instead of propagating errors; the process never fails on
// a per-item problem.
type Outcome struct {
	Component string
	Item      string
	Action    Action
	Detail    string
}
