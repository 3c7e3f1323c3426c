package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// monthParam parses the {month} path variable ("YYYY-MM").
func monthParam(r *http.Request) (core.YearMonth, error) {
	return core.ParseYearMonth(mux.Vars(r)["month"])
}

func idParam(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// sanitize trims whitespace and strips control characters from
// user-supplied text fields.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
