// Package records serves the portfolio page and its JSON API over net/http.
//
// The handler renders the contact table, the add form, live notifications
// and the carousel; accepts form posts (422 with inline errors, 303 on
// success) and delete actions; and exposes the same operations as JSON under
// /api together with an OpenAPI 3 description at /api/openapi.json.
//
// Deleting an unknown id is not an error: both the form action and
// DELETE /api/records/{id} answer as if the row had been removed.
package records
