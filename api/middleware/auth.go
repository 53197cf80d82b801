package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/crewtext-backend/api/responses"
	pkgAuth "github.com/angelmondragon/crewtext-backend/pkg/auth"
	"github.com/angelmondragon/crewtext-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

// Auth validates an operator bearer token and seeds the request context with
// the operator id and role.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithOperator(r.Context(), claims.OperatorID.String(), claims.Role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"operator_id":   claims.OperatorID.String(),
					"operator_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
