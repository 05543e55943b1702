//go:build !linux

package httpd

import "errors"

func (RealtimePolicy) Apply(priority int) error { return errors.ErrUnsupported }
