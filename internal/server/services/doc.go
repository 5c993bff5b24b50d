// Package services contains the server-side business logic: account
// registration and login, entry and reply management. Every mutation takes
// the caller's account id from a validated models.Session and checks
// ownership before touching the row.
package services
