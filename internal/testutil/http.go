// internal/testutil/http.go
package testutil

import (
	"context"
	"net/http"

	"github.com/dalemusser/sensorhub/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithUser sets the forwarded identity header the facade expects.
func WithUser(r *http.Request, userID primitive.ObjectID) *http.Request {
	r.Header.Set(identity.Header, userID.Hex())
	return r
}

// WithChiURLParam attaches a chi route parameter to the request context so
// handlers can be exercised without a full router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
