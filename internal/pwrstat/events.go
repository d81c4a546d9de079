// SPDX-License-Identifier: MIT

package pwrstat

// Wire discriminators for monitor event payloads.
const (
	EventTypeValueChanged        = "value_changed"
	EventTypeReachabilityChanged = "reachability_changed"
)

// EventMetadata is the discriminated payload of a monitor event, either a
// ValueChanged or a ReachabilityChanged.
type EventMetadata interface {
	// EventType returns the wire discriminator ("value_changed" or
	// "reachability_changed").
	EventType() string
}

// ValueChanged reports that a single UPS status field changed between two
// polls. FieldName is the wire name of the field (e.g. "load_watts").
type ValueChanged struct {
	Type          string `json:"event_type"`
	FieldName     string `json:"field_name"`
	PreviousValue any    `json:"previous_value"`
	NewValue      any    `json:"new_value"`
}

func (ValueChanged) EventType() string { return EventTypeValueChanged }

// ReachabilityChanged reports that communication with the UPS was lost or
// regained.
type ReachabilityChanged struct {
	Type      string `json:"event_type"`
	Reachable bool   `json:"reachable"`
}

func (ReachabilityChanged) EventType() string { return EventTypeReachabilityChanged }

// NewValueChanged builds a ValueChanged with its discriminator set.
func NewValueChanged(field string, previous, current any) ValueChanged {
	return ValueChanged{
		Type:          EventTypeValueChanged,
		FieldName:     field,
		PreviousValue: previous,
		NewValue:      current,
	}
}

// NewReachabilityChanged builds a ReachabilityChanged with its
// discriminator set.
func NewReachabilityChanged(reachable bool) ReachabilityChanged {
	return ReachabilityChanged{
		Type:      EventTypeReachabilityChanged,
		Reachable: reachable,
	}
}

// Event is one entry in the monitor's change stream. PreviousState is nil
// on the event that announces a recovered UPS, NewState is nil on the one
// that announces a lost UPS. ValueChanged events emitted from the same
// poll share both snapshots.
type Event struct {
	Metadata      EventMetadata `json:"event_metadata"`
	PreviousState *UPSStatus    `json:"previous_state"`
	NewState      *UPSStatus    `json:"new_state"`
}
