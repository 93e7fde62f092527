// Package sse fans named events out to Server-Sent Events subscribers.
//
// A Hub serves one page. Each Client has a bounded queue; a broadcast waits
// on a full queue for at most Config.SendTimeout before dropping that client.
//
//	hub := sse.NewHub(sse.Config{BufferSize: 1})
//	client := hub.NewClient()
//	_ = hub.AddClient(ctx, client)
//	go sse.Stream(w, r, client)
//	hub.Send(ctx, sse.Event{Type: "title", Data: "Hello"})
package sse
