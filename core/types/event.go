package types

// Event is the rendered form of a protocol event: a dotted type tag such as
// "garden.lend" plus flat string attributes. It is what the RPC surface, the
// WebSocket stream, and the journaled event log all carry.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
