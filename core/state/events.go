package state

import (
	"fmt"
	"sort"
	"strconv"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"blueberry/core/events"
	"blueberry/core/types"
)

var (
	eventPrefix  = []byte("event:")
	eventHeadKey = ethcrypto.Keccak256([]byte("event-head"))
)

// storedEvent flattens the attribute map into parallel sorted slices because
// the RLP codec has no map support.
type storedEvent struct {
	Type   string
	Keys   []string
	Values []string
}

// AppendEvent records an emitted event under its sequence number and advances
// the journal head. Sequences are assigned by the event hub and arrive
// strictly increasing.
func (m *Manager) AppendEvent(sequence uint64, evt *types.Event) error {
	if sequence == 0 {
		return fmt.Errorf("event sequence must be positive")
	}
	if evt == nil {
		return fmt.Errorf("event must not be nil")
	}
	stored := storedEvent{Type: evt.Type}
	keys := make([]string, 0, len(evt.Attributes))
	for key := range evt.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		stored.Keys = append(stored.Keys, key)
		stored.Values = append(stored.Values, evt.Attributes[key])
	}
	if err := m.put(eventKey(sequence), &stored); err != nil {
		return err
	}
	return m.put(eventHeadKey, sequence)
}

// EventsSince returns every journaled record with a sequence strictly greater
// than the cursor, in order.
func (m *Manager) EventsSince(cursor uint64) ([]events.Record, error) {
	head, err := m.LatestEventSequence()
	if err != nil {
		return nil, err
	}
	var records []events.Record
	for seq := cursor + 1; seq <= head; seq++ {
		var stored storedEvent
		ok, err := m.get(eventKey(seq), &stored)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		attrs := make(map[string]string, len(stored.Keys))
		for i, key := range stored.Keys {
			if i < len(stored.Values) {
				attrs[key] = stored.Values[i]
			}
		}
		records = append(records, events.Record{
			Sequence: seq,
			Event:    &types.Event{Type: stored.Type, Attributes: attrs},
		})
	}
	return records, nil
}

// LatestEventSequence returns the highest journaled sequence, or 0 when the
// journal is empty.
func (m *Manager) LatestEventSequence() (uint64, error) {
	var head uint64
	ok, err := m.get(eventHeadKey, &head)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return head, nil
}

func eventKey(sequence uint64) []byte {
	return prefixedKey(eventPrefix, strconv.FormatUint(sequence, 10))
}
