package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// StartMockEdge runs a fake edge network. Each request is answered as if by
// the edge node named in the URL host ("<dist>.<node>.cloudfront.net"):
// most nodes cache the file, a few report an origin error.
// Call this in a goroutine before warming.
func StartMockEdge(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

		node := r.Header.Get("X-Edge-Node")
		switch {
		case strings.HasPrefix(node, "GRU"):
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.Header().Set("X-Cache", "Miss from cloudfront")
			_, _ = w.Write([]byte("cached " + r.URL.Path))
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock edge stopped", "error", err)
	}
}

// edgeTransport sends every warm request to the mock edge at addr while
// keeping the virtual host, and tags it with the edge node it was meant for.
type edgeTransport struct {
	addr string
}

func (t edgeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	parts := strings.Split(req.URL.Host, ".")
	if len(parts) > 1 {
		out.Header.Set("X-Edge-Node", parts[1])
	}
	out.URL.Host = t.addr
	return http.DefaultTransport.RoundTrip(out)
}
