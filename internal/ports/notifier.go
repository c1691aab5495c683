package ports

// NotifierPort delivers engine events to connected clients. Payloads are
// JSON-serializable values; an empty recipients list means broadcast.
type NotifierPort interface {
	Publish(tableID string, eventName string, payload any, recipients []string) error
}
