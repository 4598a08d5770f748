// Package server exposes a debug HTTP endpoint for running ad hoc
// genji queries against the indexed chain, the same raw-SQL-over-HTTP
// shape the teacher's own server package used for its block tables.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/genjidb/genji"
	"github.com/genjidb/genji/document"
	"github.com/genjidb/genji/types"
	"github.com/sirupsen/logrus"

	"github.com/stakecoin-go/posd/blockchain"
)

// Start launches the debug HTTP server in the background. db is
// typically the *genji.DB backing a storage.ChainIndexStore; idx is
// the same ChainIndex the loader indexed it through, used to answer
// the /supermajority version-adoption poll without a round trip
// through genji.
func Start(addr string, db *genji.DB, idx blockchain.ChainIndex) {
	mux := http.NewServeMux()
	mux.Handle("/sql", query(db))
	mux.Handle("/supermajority", superMajority(idx))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logrus.Error(err)
		}
	}()
}

// superMajority answers ?minVersion=&required=&window= against the
// current tip, the same informational poll operators use to gauge
// PoS-block version adoption before a soft-fork activation height.
func superMajority(idx blockchain.ChainIndex) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tip, ok := idx.Tip()
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("no tip indexed yet"))
			return
		}

		minVersion, _ := strconv.Atoi(r.FormValue("minVersion"))
		required, _ := strconv.ParseUint(r.FormValue("required"), 10, 64)
		window, _ := strconv.ParseUint(r.FormValue("window"), 10, 64)
		if window == 0 {
			window = 1000
		}
		if required == 0 {
			required = window/2 + 1
		}

		found := blockchain.HowSuperMajority(idx, int32(minVersion), tip, required, window)
		b, _ := json.Marshal(map[string]interface{}{
			"found":       found,
			"required":    required,
			"window":      window,
			"isSuperMajority": found >= required,
		})
		w.Write(b)
	})
}

func query(db *genji.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.FormValue("query")
		res, err := db.Query(q)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
		defer res.Close()

		results := make([]map[string]interface{}, 0)
		err = res.Iterate(func(d types.Document) error {
			var m map[string]interface{}
			if err := document.MapScan(d, &m); err != nil {
				return errors.Wrap(err, "server: scanning query result row")
			}
			results = append(results, m)
			return nil
		})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}

		b, err := json.Marshal(results)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
		w.Write(b)
	})
}
