// Package http exposes the salon scheduler as a JSON API on gorilla/mux.
//
// Public endpoints:
//   - POST /api/login: {"username","password"}. Sets the HttpOnly, SameSite=Lax
//     `session_token` cookie and the `X-Session-Token` header; 401 on bad credentials.
//   - POST /api/logout: revokes the presented session and clears the cookie. 204.
//   - GET /healthz and GET /metrics.
//
// Session protected endpoints (cookie or `Authorization: Bearer <token>`):
//   - GET /api/user, POST /api/session/refresh.
//   - GET, POST /api/employees; PATCH, DELETE /api/employees/{id}.
//   - GET /api/timeblocks?date=YYYY-MM-DD, POST /api/timeblocks,
//     PATCH, DELETE /api/timeblocks/{id}, POST /api/timeblocks/{id}/move.
//   - GET /api/schedule?date=YYYY-MM-DD: slots and per employee cells.
//   - GET, POST /api/admin/users (administrators only).
//
// Placement failures answer 422 with `errorCode` set to the scheduler error
// kind, `field` for the offending input and `conflictingBlockId` for overlaps.
// Field names on the wire are camelCase.
package http
