package dialog

type State string

const (
	StateIdle State = "idle"

	// Order placement
	StateOrderAwaitSheet    State = "order:await_sheet"    // waiting for the .xlsx order sheet
	StateOrderAwaitDecision State = "order:await_decision" // sheet parsed, verify or place
	StateOrderRunning       State = "order:running"        // placement in progress

	// Lookups started from the menu without an argument
	StateAvailAwaitCatalog State = "avail:await_catalog"
	StateTrackAwaitPO      State = "track:await_po"
	StateConfirmAwaitPO    State = "confirm:await_po"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}
