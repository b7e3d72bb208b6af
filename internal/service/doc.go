// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects, the stores
// (defined in internal/store), the access policy (internal/policy), and the
// notification fan-out to fulfill application features.
//
// Services receive dependencies through constructor injection and translate
// domain and store errors into application-level sentinel errors that the API
// layer maps onto HTTP status codes. The task lifecycle service consults the
// access policy before every mutation and publishes lifecycle events only
// after the mutation has been committed to the store.
package service
