package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glacieros/lumen/core/executor"
	"github.com/glacieros/lumen/core/state"
	"github.com/glacieros/lumen/core/tables"
)

// newQueryRouter mounts part of the read-only query surface on a minimal chi
// router: epoch info, flk and stables balances, and node info. The other
// QuerySurface methods have no route. It re-binds a fresh state.State to
// backend on every request since backend is the durable (non-overlaid) table
// store and reads never fail.
func newQueryRouter(backend tables.Backend) http.Handler {
	r := chi.NewRouter()

	q := func() *executor.Query { return executor.NewQuery(state.New(backend)) }

	r.Get("/epoch", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, q().GetEpochInfo())
	})
	r.Get("/accounts/{addr}/flk", func(w http.ResponseWriter, req *http.Request) {
		addr, err := state.ParseAccountAddr(chi.URLParam(req, "addr"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, q().GetFlkBalance(addr).String())
	})
	r.Get("/accounts/{addr}/stables", func(w http.ResponseWriter, req *http.Request) {
		addr, err := state.ParseAccountAddr(chi.URLParam(req, "addr"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, q().GetStablesBalance(addr).String())
	})
	r.Get("/nodes/{node}", func(w http.ResponseWriter, req *http.Request) {
		node, err := state.ParseNodeKey(chi.URLParam(req, "node"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		info, ok := q().GetNodeInfo(node)
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, info)
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func httpListenAndServe(addr string, handler http.Handler) error {
	return http.ListenAndServe(addr, handler)
}
