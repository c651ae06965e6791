package service

import (
	"encoding/json"

	ws "posbackend/internal/websocket"
)

// Websocket event names
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventStockDeducted      = "stock.deducted"
	EventStockRestored      = "stock.restored"
	EventTransferCompleted  = "transfer.completed"
)

// Event is the payload pushed to connected websocket clients.
type Event struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

func publish(hub *ws.Hub, event string, data map[string]interface{}) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return
	}
	hub.Broadcast <- payload
}
