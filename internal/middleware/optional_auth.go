package middleware

import (
	"net/http"

	"github.com/laudosaude/backend/internal/auth"
)

// OptionalAuth tenta ler o Bearer token, mas não bloqueia se estiver ausente
// ou inválido. Se válido, injeta o Authorization no context.
func OptionalAuth(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := auth.ParseJWT(secret, raw)
		if err == nil {
			if authz := auth.ResolveAuthorization(claims); authz != nil {
				r = r.WithContext(auth.WithAuthorization(r.Context(), authz))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func OptionalAuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return OptionalAuth(secret, next) }
}
