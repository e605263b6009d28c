package tui

type View int

const (
	ViewFeed View = iota
	ViewReader
	ViewSaved
	ViewSearch
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewFeed:
		return "feed"
	case ViewReader:
		return "reader"
	case ViewSaved:
		return "saved"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}
