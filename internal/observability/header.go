package observability

import (
	"net/http"
	"strconv"
	"strings"
)

// AppendServerTiming adds one Server-Timing entry. Non-positive durations
// and empty descriptions are left out; an entry with neither is skipped.
func AppendServerTiming(w http.ResponseWriter, name string, durMs float64, desc string) {
	if durMs <= 0 && desc == "" {
		return
	}
	var b strings.Builder
	b.WriteString(name)
	if durMs > 0 {
		b.WriteString(";dur=")
		b.WriteString(strconv.FormatFloat(durMs, 'f', 2, 64))
	}
	if desc != "" {
		b.WriteString(";desc=")
		b.WriteString(strconv.Quote(desc))
	}
	w.Header().Add("Server-Timing", b.String())
}
