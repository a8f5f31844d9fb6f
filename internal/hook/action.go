package hook

// Action tells a hook script which phase of which direction it runs in.
type Action string

const (
	UpBefore   Action = "upBefore"
	UpAfter    Action = "upAfter"
	DownBefore Action = "downBefore"
	DownAfter  Action = "downAfter"
)

// Actions returns the pre and post actions for a direction.
func Actions(backward bool) (before, after Action) {
	if backward {
		return DownBefore, DownAfter
	}
	return UpBefore, UpAfter
}
