package api

import (
	"net/http"
	"strconv"
)

const defaultLimit = 20
const maxLimit = 100

// ParseLimitOffset lê limit e offset da query string. Limite padrão 20,
// máximo 100; valores inválidos caem no padrão.
func ParseLimitOffset(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
