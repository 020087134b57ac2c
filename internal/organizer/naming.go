package organizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"dropsort/internal/fileutil"
)

// TimestampLayout is the collision token inserted between base name and extension.
const TimestampLayout = "20060102_150405"

const maxCollisionSlots = 1000

// SplitName splits name at its last dot. The extension keeps its dot. Names
// without a dot, or whose only dot is leading, have no extension.
func SplitName(name string) (base, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}

// CollisionName returns the disambiguated form of name for the given
// timestamp. seq values above 1 add a counter for same-second collisions.
func CollisionName(name string, at time.Time, seq int) string {
	base, ext := SplitName(name)
	token := at.Format(TimestampLayout)
	if seq > 1 {
		return fmt.Sprintf("%s_%s-%d%s", base, token, seq, ext)
	}
	return fmt.Sprintf("%s_%s%s", base, token, ext)
}

// resolveDestination returns the first free path for name inside dir and
// whether it differs from the plain name.
func (p *Placer) resolveDestination(dir, name string) (string, bool, error) {
	candidate := filepath.Join(dir, name)
	taken, err := fileutil.Exists(candidate)
	if err != nil {
		return "", false, err
	}
	if !taken {
		return candidate, false, nil
	}

	at := p.now()
	for seq := 1; seq <= maxCollisionSlots; seq++ {
		candidate = filepath.Join(dir, CollisionName(name, at, seq))
		taken, err = fileutil.Exists(candidate)
		if err != nil {
			return "", false, err
		}
		if !taken {
			return candidate, true, nil
		}
	}
	return "", false, fmt.Errorf("exhausted collision slots for %s in %s", name, dir)
}
