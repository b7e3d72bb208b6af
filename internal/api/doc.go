// Package api contains the HTTP handlers, request/response models, and
// error mapping for the task collaboration API. Handlers stay thin: they
// decode and validate requests, call the service layer with the caller's
// verified identity, and translate service errors into sanitized HTTP
// responses.
package api
