package domain

// Bound argument names that override the parallel policy of a single node.
const (
	SuccessThresholdArg = "success_threshold"
	FailureThresholdArg = "failure_threshold"
)

// ParallelPolicy sets how many children of a Parallel node must succeed or
// fail for the node to finish. Zero means every child for Success and a
// single child for Failure.
type ParallelPolicy struct {
	Success int `json:"success" yaml:"success" mapstructure:"success"`
	Failure int `json:"failure" yaml:"failure" mapstructure:"failure"`
}

// Thresholds resolves the policy for n children, clamped to 1..n.
func (p ParallelPolicy) Thresholds(n int) (success, failure int) {
	success, failure = p.Success, p.Failure
	if success <= 0 || success > n {
		success = n
	}
	if failure <= 0 {
		failure = 1
	}
	if failure > n {
		failure = n
	}
	return success, failure
}

// Override applies the threshold arguments bound to a node.
func (p ParallelPolicy) Override(args Args) ParallelPolicy {
	if v, ok := args.Int(SuccessThresholdArg); ok {
		p.Success = int(v)
	}
	if v, ok := args.Int(FailureThresholdArg); ok {
		p.Failure = int(v)
	}
	return p
}
