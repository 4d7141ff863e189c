package controllers

import (
	"log"

	"github.com/dfierro/tavola-api/realtime"
)

var publisher realtime.Publisher

// SetPublisher injects the event distributor used after state commits.
// Tests substitute a mock here, mirroring config.SetDB.
func SetPublisher(p realtime.Publisher) {
	publisher = p
}

// publish fans an event out after a successful commit. Delivery is
// best-effort: a missing or failing distributor never fails the request,
// since the committed state is authoritative.
func publish(group, event string, payload interface{}) {
	if publisher == nil {
		log.Printf("no event publisher configured, dropping %s for %s", event, group)
		return
	}
	publisher.Publish(group, event, payload)
}
