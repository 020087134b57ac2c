package organizer

import "dropsort/internal/fileutil"

// SetMoveForTests replaces the move implementation used by p.
func SetMoveForTests(p *Placer, fn func(src, dst string) (fileutil.Method, error)) {
	p.move = fn
}
