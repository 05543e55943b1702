package httpd

import "golang.org/x/sys/unix"

func (RealtimePolicy) Apply(priority int) error {
	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_RR,
		Priority: uint32(priority),
	}
	return unix.SchedSetAttr(0, &attr, 0)
}
