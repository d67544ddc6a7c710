package api

import "github.com/studiofoundry/intake/internal/services"

// Store is the union of the persistence surfaces the router wires into its
// services. Both the sqlite store and the in-memory store satisfy it.
type Store interface {
	services.FormStore
	services.SubmissionStore
	services.AuthStore
}
