// Package webhook applies identity provider user lifecycle events to the local user store.
//
// Deliveries are signed with the Svix scheme. A delivery is verified over its
// raw bytes before any field of it is read, then classified by event type,
// mapped onto a models.User and dispatched to the Store:
//
//	user.created  insert, then propagate the internal id back to the provider
//	user.updated  overwrite first name, last name, username and photo url
//	user.deleted  hard delete, a missing user is not an error
//
// Other event types are acknowledged without any store access.
// Side effects after a successful dispatch are best-effort and never change
// the outcome of Handle. Synchronizer.Wait blocks until they are done.
package webhook
