// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"code.hybscloud.com/pktq"
	"code.hybscloud.com/pktq/rps"
)

type maxlenBody struct {
	Maxlen int `json:"maxlen"`
}

type hashBody struct {
	Name string `json:"name"`
}

type statsBody struct {
	pktq.Stats
	PerCPU    []pktq.Stats `json:"perCPU"`
	Delivered uint64       `json:"delivered"`
	Sent      uint64       `json:"sent"`
	Rejected  uint64       `json:"rejected"`
}

func (d *daemon) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.prom, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /control/rps_hash_list", d.getHashList)
	mux.HandleFunc("GET /control/rps_hash", d.getHash)
	mux.HandleFunc("PUT /control/rps_hash", d.putHash)
	mux.HandleFunc("POST /control/ifdetach", d.postIfDetach)
	mux.HandleFunc("GET /control/{family}/maxlen", d.withFamily(d.getMaxlen))
	mux.HandleFunc("PUT /control/{family}/maxlen", d.withFamily(d.putMaxlen))
	mux.HandleFunc("GET /control/{family}/rps_hash", d.withFamily(d.getFamilyHash))
	mux.HandleFunc("PUT /control/{family}/rps_hash", d.withFamily(d.putFamilyHash))
	mux.HandleFunc("GET /control/{family}/stats", d.withFamily(d.getStats))
	mux.HandleFunc("POST /control/{family}/flush", d.withFamily(d.postFlush))
	return mux
}

func (d *daemon) withFamily(h func(w http.ResponseWriter, r *http.Request, f *family)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := d.families[r.PathValue("family")]
		if f == nil {
			http.Error(w, "unknown family", http.StatusNotFound)
			return
		}
		h(w, r, f)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("response write error", zap.Error(err))
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (d *daemon) getMaxlen(w http.ResponseWriter, r *http.Request, f *family) {
	writeJSON(w, maxlenBody{Maxlen: f.queue.Capacity()})
}

func (d *daemon) putMaxlen(w http.ResponseWriter, r *http.Request, f *family) {
	var body maxlenBody
	if !readJSON(w, r, &body) {
		return
	}
	if err := f.queue.SetCapacity(body.Maxlen); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pktq.ErrInvalidCapacity) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, maxlenBody{Maxlen: f.queue.Capacity()})
}

func (d *daemon) getHashList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, rps.DefaultTable.Names())
}

// getHash reports the selector of the first queue; PUT keeps them equal.
func (d *daemon) getHash(w http.ResponseWriter, r *http.Request) {
	name := d.cfg.RPSHash
	if len(d.order) > 0 {
		name = d.families[d.order[0]].selector.Name()
	}
	writeJSON(w, hashBody{Name: name})
}

func (d *daemon) putHash(w http.ResponseWriter, r *http.Request) {
	var body hashBody
	if !readJSON(w, r, &body) {
		return
	}
	if _, ok := rps.DefaultTable.Lookup(body.Name); !ok {
		http.Error(w, "unknown hash function", http.StatusBadRequest)
		return
	}
	for _, name := range d.order {
		if err := d.families[name].selector.Set(body.Name); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, body)
}

func (d *daemon) getFamilyHash(w http.ResponseWriter, r *http.Request, f *family) {
	writeJSON(w, hashBody{Name: f.selector.Name()})
}

func (d *daemon) putFamilyHash(w http.ResponseWriter, r *http.Request, f *family) {
	var body hashBody
	if !readJSON(w, r, &body) {
		return
	}
	if err := f.selector.Set(body.Name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rps.ErrUnknownHash) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, body)
}

func (d *daemon) getStats(w http.ResponseWriter, r *http.Request, f *family) {
	per := f.queue.PerCPU()
	body := statsBody{PerCPU: per, Delivered: f.delivered.Load()}
	for _, st := range per {
		body.Drops += st.Drops
		body.Enqueued += st.Enqueued
		body.Dequeued += st.Dequeued
		body.Length += st.Length
	}
	body.Capacity = uint64(f.queue.Capacity())
	body.Sent, body.Rejected = f.produced()
	writeJSON(w, body)
}

func (d *daemon) postFlush(w http.ResponseWriter, r *http.Request, f *family) {
	writeJSON(w, map[string]int{"flushed": f.queue.Flush()})
}

func (d *daemon) postIfDetach(w http.ResponseWriter, r *http.Request) {
	d.reg.IfDetach()
	w.WriteHeader(http.StatusNoContent)
}
