package nakama

import (
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"rummy/internal/app"
	"rummy/internal/ports"
)

// DispatcherNotifier implements ports.NotifierPort over a Nakama match
// dispatcher. Event names map to op codes; payloads travel as JSON. Events
// with intended recipients who are all offline are suppressed rather than
// leaked to the whole table.
type DispatcherNotifier struct {
	dispatcher runtime.MatchDispatcher
	logger     runtime.Logger
	presences  map[string]runtime.Presence
}

// NewDispatcherNotifier wraps the per-callback dispatcher and presence map.
func NewDispatcherNotifier(dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences map[string]runtime.Presence) *DispatcherNotifier {
	return &DispatcherNotifier{dispatcher: dispatcher, logger: logger, presences: presences}
}

// Publish delivers one engine event to its recipients, or broadcasts when the
// recipient list is empty.
func (n *DispatcherNotifier) Publish(tableID string, eventName string, payload any, recipients []string) error {
	opCode, ok := eventOpCode(app.EventKind(eventName))
	if !ok {
		return fmt.Errorf("unknown event %q", eventName)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventName, err)
	}

	var targets []runtime.Presence
	if len(recipients) > 0 {
		for _, uid := range recipients {
			if p, ok := n.presences[uid]; ok {
				targets = append(targets, p)
			}
		}
		if len(targets) == 0 {
			n.logger.Debug("Publish: dropping %s for offline recipients %v", eventName, recipients)
			return nil
		}
	}

	return n.dispatcher.BroadcastMessage(opCode, data, targets, nil, true)
}

var _ ports.NotifierPort = (*DispatcherNotifier)(nil)
