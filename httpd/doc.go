// Package httpd is a small HTTP/1.x engine built on package transport.
//
// Server accepts connections and runs one goroutine per connection, with a
// hard cap on concurrent connections: once MaxConns are active, new
// connections are closed right after accept without reading a byte. HTTP
// turns a Handler into the per-connection keep-alive loop.
//
// On the client side, Client speaks to one upstream over one connection,
// Pool keeps idle keep-alive connections per Address and probes them before
// reuse, and RoundRobin spreads calls over a list of addresses.
//
// Parsing is permissive: stray CRs, odd spacing and folded header
// lines are accepted. Only framing that cannot be interpreted at all is a
// *ProtocolError.
//
// Quick start:
//
//	s := &httpd.Server{
//		Addr:     ":8080",
//		MaxConns: 256,
//		Handler: &httpd.HTTP{Handler: httpd.HandlerFunc(func(w *httpd.Responder, r *httpd.Request) {
//			w.SetContentType("text/plain", "utf-8")
//			w.WriteString("hello " + r.Query("name"))
//		})},
//	}
//	log.Fatal(s.ListenAndServe())
package httpd
