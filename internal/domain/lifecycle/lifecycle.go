// Package lifecycle holds process lifecycle constants shared by deliveries and infrastructure.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of servers and the record store.
const DefaultTimeout = 10 * time.Second
