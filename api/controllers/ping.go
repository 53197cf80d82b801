package controllers

import (
	"net/http"

	"github.com/angelmondragon/crewtext-backend/api/middleware"
	"github.com/angelmondragon/crewtext-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// AdminPing echoes the authenticated operator so dashboards can check their
// token and role.
func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "admin", "status": "ok"}
		if operator := middleware.OperatorIDFromContext(r.Context()); operator != "" {
			payload["operator_id"] = operator
		}
		if role := middleware.RoleFromContext(r.Context()); role != "" {
			payload["role"] = string(role)
		}
		responses.WriteSuccess(w, payload)
	}
}
