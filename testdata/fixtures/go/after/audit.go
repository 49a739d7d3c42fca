package project

import "log"

// Audit logs user changes.
func Audit(action string, id int) {
	log.Printf("audit: %s user=%d", action, id)
}
