package httpd

// SchedPolicy raises the scheduling priority of the calling OS thread. The
// server calls it with the goroutine locked to its thread.
type SchedPolicy interface {
	Apply(priority int) error
}

type SchedPolicyFunc func(priority int) error

func (f SchedPolicyFunc) Apply(priority int) error { return f(priority) }

// RealtimePolicy requests round-robin real-time scheduling (SCHED_RR).
// It needs CAP_SYS_NICE or an equivalent rlimit.
type RealtimePolicy struct{}
