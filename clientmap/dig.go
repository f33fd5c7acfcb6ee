package clientmap

import (
	"time"

	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/world"
)

// DigTimer tracks one in-progress digging interaction: the block being
// dug, and how much time remains before it completes. Matches the
// reference's Camera::dig_cooldown: an Option<(pos, remaining seconds)>
// that resets whenever the selected block changes.
type DigTimer struct {
	pos       world.Pos
	remaining time.Duration
	active    bool
}

// ComputeDigDuration picks the cooldown for digging a block with the given
// dig group, trying the currently selected tool's groups first and
// falling back to the bare-hand groups, matching the reference's
// try_tool_groups / "1. selected tool, 2. bare hand" fallback order. ok is
// false if no group can dig this block at all.
func ComputeDigDuration(dg gameparams.DigGroup, selectedTool []gameparams.ToolGroupEntry, hand []gameparams.ToolGroupEntry) (time.Duration, bool) {
	if d, ok := tryToolGroups(dg, selectedTool); ok {
		return d, true
	}
	return tryToolGroups(dg, hand)
}

func tryToolGroups(dg gameparams.DigGroup, groups []gameparams.ToolGroupEntry) (time.Duration, bool) {
	for _, g := range groups {
		if g.Group != dg.Group {
			continue
		}
		// Only this group's tools can dig if the block's hardness is at
		// or below what the tool is rated for.
		if dg.Hardness <= g.MaxHardness {
			secs := 0.01 + 1.0/float64(g.Speed)
			return time.Duration(secs * float64(time.Second)), true
		}
	}
	return 0, false
}

// Start begins (or restarts) digging pos, matching the reference's "end
// the interaction if the selected position changed" branch (a caller
// whose selection moved should call Start again with the new position
// rather than relying on Tick to notice).
func (t *DigTimer) Start(pos world.Pos, dur time.Duration) {
	t.pos = pos
	t.remaining = dur
	t.active = true
}

// Cancel stops whatever dig is in progress.
func (t *DigTimer) Cancel() {
	t.active = false
}

// Tick advances t by dt and reports whether it just completed (remaining
// time reached zero while digging the same position it started on). A
// caller that gets true back should apply PredictDig and send the
// server's Dig message; Tick itself only owns timing, matching the
// reference keeping the network send in the input-handling loop rather
// than in the cooldown itself.
func (t *DigTimer) Tick(dt time.Duration) (pos world.Pos, done bool) {
	if !t.active {
		return world.Pos{}, false
	}
	t.remaining -= dt
	if t.remaining > 0 {
		return world.Pos{}, false
	}
	t.active = false
	return t.pos, true
}

// Active reports whether a dig is in progress, and against which position.
func (t *DigTimer) Active() (world.Pos, bool) {
	return t.pos, t.active
}

// Progress returns how far along the current dig is, in [0,1]; 0 if no
// dig is active or it has a non-positive total duration.
func (t *DigTimer) Progress(total time.Duration) float32 {
	if !t.active || total <= 0 {
		return 0
	}
	done := total - t.remaining
	if done < 0 {
		return 0
	}
	p := float32(done) / float32(total)
	if p > 1 {
		return 1
	}
	return p
}
