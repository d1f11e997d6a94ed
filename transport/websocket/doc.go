// Package websocket pushes catalog change notifications to open preview pages.
//
// The package uses a hub-and-spoke model where a central Hub owns every
// connection. Clients subscribe to one dataset key ("game/map") through the
// /ws?game=...&map=... endpoint; when the loader reloads that dataset the
// server calls BroadcastReload and each subscribed page receives
//
//	{"key": "game_enshrouded/embervale", "event": "dataset_updated"}
//
// and reloads itself.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, "game_enshrouded/embervale")
//	})
//
//	hub.BroadcastReload("game_enshrouded/embervale")
//
// Concurrency:
//
// Only the Run goroutine touches the subscription table; every other method
// talks to it over channels, so BroadcastReload blocks until Run is started.
package websocket
