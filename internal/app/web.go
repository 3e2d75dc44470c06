// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/pet_tracker/internal/config"
	"github.com/relabs-tech/pet_tracker/internal/radio"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RunWeb serves the base node's web UI: the embedded map page, a JSON
// endpoint with the last-known-good position, and a WebSocket that pushes
// each newly received position.
func RunWeb(cache *radio.Cache) error {
	cfg := config.Get()

	// 1) JSON API endpoint: latest position
	http.HandleFunc("/api/position", func(w http.ResponseWriter, r *http.Request) {
		sample, rssi, snr, ok := cache.Latest()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		pos := Position{Time: sample.HHMMSS, Lat: sample.Lat, Lon: sample.Lon, RSSI: rssi, SNR: snr}
		if err := json.NewEncoder(w).Encode(pos); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 2) WebSocket live feed
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		var lastSent uint32
		for range ticker.C {
			sample, rssi, snr, ok := cache.Latest()
			if !ok || sample.HHMMSS == lastSent {
				continue
			}
			lastSent = sample.HHMMSS

			pos := Position{Time: sample.HHMMSS, Lat: sample.Lat, Lon: sample.Lon, RSSI: rssi, SNR: snr}
			if err := conn.WriteJSON(pos); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	})

	// 3) Embedded status page as the root
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexHTML)
	})

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

// indexHTML is the whole UI: shows the cached position, link quality, and a
// map link. Live-updates over the WebSocket, with a polling fallback.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pet Tracker</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #f4f4f4; }
.card { background: #fff; border-radius: 8px; padding: 1.5em; max-width: 28em; box-shadow: 0 1px 4px rgba(0,0,0,.15); }
h1 { font-size: 1.3em; }
td { padding: .2em .8em .2em 0; }
#status { color: #888; }
a { color: #06c; }
</style>
</head>
<body>
<div class="card">
<h1>Pet Tracker</h1>
<table>
<tr><td>Latitude</td><td id="lat">-</td></tr>
<tr><td>Longitude</td><td id="lon">-</td></tr>
<tr><td>Fix time</td><td id="time">-</td></tr>
<tr><td>RSSI</td><td id="rssi">-</td></tr>
<tr><td>SNR</td><td id="snr">-</td></tr>
</table>
<p><a id="map" href="#" target="_blank">Open map</a></p>
<p id="status">Waiting for position...</p>
</div>
<script>
function hhmmss(v) {
  var s = String(v).padStart(6, "0");
  return s.slice(0,2) + ":" + s.slice(2,4) + ":" + s.slice(4,6);
}
function show(p) {
  document.getElementById("lat").textContent = p.lat.toFixed(6);
  document.getElementById("lon").textContent = p.lon.toFixed(6);
  document.getElementById("time").textContent = hhmmss(p.time);
  document.getElementById("rssi").textContent = p.rssi.toFixed(1) + " dBm";
  document.getElementById("snr").textContent = p.snr.toFixed(2) + " dB";
  document.getElementById("map").href =
    "https://www.openstreetmap.org/?mlat=" + p.lat + "&mlon=" + p.lon + "#map=18/" + p.lat + "/" + p.lon;
  document.getElementById("status").textContent = "Live";
}
function poll() {
  fetch("/api/position").then(function(r) {
    if (r.ok) { return r.json().then(show); }
  }).catch(function() {});
}
try {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onmessage = function(ev) { show(JSON.parse(ev.data)); };
  ws.onerror = function() { setInterval(poll, 5000); };
} catch (e) {
  setInterval(poll, 5000);
}
poll();
</script>
</body>
</html>
`
