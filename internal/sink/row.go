package sink

import "github.com/gyaneshwarpardhi/blockwatch/internal/event"

const (
	minY       = 0
	maxY       = 127
	maxDataLen = 150
)

// Row is the normalized form of an Event as stored in bbdata.
type Row struct {
	Date   int64
	Player string
	Action int
	World  int
	X      int
	Y      int
	Z      int
	Type   int
	Data   string
}

// NewRow derives the stored row from ev. ev itself is left untouched, so the
// flat-file mirror always sees raw values.
func NewRow(ev event.Event) Row {
	return Row{
		Date:   ev.Timestamp.UnixMilli(),
		Player: ev.Actor,
		Action: int(ev.Action),
		World:  ev.World,
		X:      ev.X,
		Y:      clampY(ev.Y),
		Z:      ev.Z,
		Type:   ev.Type,
		Data:   truncate(ev.Data, maxDataLen),
	}
}

func clampY(y int) int {
	return max(minY, min(y, maxY))
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
