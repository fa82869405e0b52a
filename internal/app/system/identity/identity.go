// Package identity extracts the caller's identity on the HTTP facade.
//
// The facade is consumed by the trusted web application, which owns
// authentication (sessions, OAuth, signup). It forwards the
// authenticated user's ObjectID in the X-User-ID header; this package
// parses it and fails closed on anything malformed. Authorization —
// what that user may see or do — is decided by devicepolicy, never
// here.
package identity

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Header is the request header carrying the caller's user ObjectID (hex).
const Header = "X-User-ID"

// FromRequest returns the caller's user ID and a found flag. A missing
// or malformed header yields (NilObjectID, false) so callers can trust
// that ok=true means a well-formed ObjectID.
func FromRequest(r *http.Request) (primitive.ObjectID, bool) {
	hex := r.Header.Get(Header)
	if hex == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
