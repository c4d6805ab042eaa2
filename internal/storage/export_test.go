package storage

import "time"

// SetClock pins the time used for object names.
func (u *Uploader) SetClock(now func() time.Time) { u.now = now }
