// Command httpd-echo answers every request with a dump of the request it
// received, which is handy when debugging clients and proxies.
//
// With -upstreams it forwards requests instead, round-robin over the list
// and through a keep-alive pool. With -replay it acts as a client: it reads
// one captured request from a file and sends it to -addr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"dqx0.com/go/httpd/codec"
	"dqx0.com/go/httpd/httpd"
	"dqx0.com/go/httpd/internal/obs"
	"dqx0.com/go/httpd/transport"
)

func main() {
	var (
		addr      = flag.String("addr", "0.0.0.0:9876", "listen address, or target address with -replay")
		unixPath  = flag.String("unix", "", "serve on this unix-domain socket instead of -addr")
		maxConns  = flag.Int("maxconns", 1024, "maximum concurrent connections")
		rto       = flag.Duration("rto", 0, "per-recv timeout")
		sto       = flag.Duration("sto", 0, "per-send timeout")
		prio      = flag.Int("prio", 0, "real-time priority for connection threads (needs CAP_SYS_NICE)")
		maxBody   = flag.Int64("maxbody", 8<<20, "largest accepted request body in bytes, 0 for no limit")
		upstreams = flag.String("upstreams", "", "comma separated host:port[:type] list to forward to")
		replay    = flag.String("replay", "", "send the request captured in this file to -addr and exit")
		ring      = flag.Bool("ring", false, "use io_uring sockets for outgoing connections")
		level     = flag.String("log-level", "info", "debug, info, warn or error")
		jsonLog   = flag.Bool("json-log", false, "log JSON records to stderr")
	)
	flag.Parse()

	logger := newLogger(*level, *jsonLog)
	opts := transport.Options{RecvTimeout: *rto, SendTimeout: *sto}

	if *replay != "" {
		if err := runReplay(*replay, *addr, opts, *ring); err != nil {
			log.Fatal(err)
		}
		return
	}

	rec := obs.NewRecorder()
	h := &echo{log: logger, meter: rec}
	if *upstreams != "" {
		list, err := httpd.ParseAddressList(*upstreams)
		if err != nil {
			log.Fatal(err)
		}
		h.upstreams = list
		h.pool = httpd.NewPool(opts)
		h.pool.Logger = logger
		h.pool.Meter = rec
		if *ring {
			h.pool.Dial = dialRing
		}
		defer h.pool.Close()
	}

	s := &httpd.Server{
		Addr:        *addr,
		MaxConns:    *maxConns,
		RecvTimeout: *rto,
		SendTimeout: *sto,
		Priority:    *prio,
		Logger:      logger,
		Meter:       rec,
		Handler: &httpd.HTTP{
			Handler:      h,
			ServerName:   "httpd-echo",
			MaxBodyBytes: *maxBody,
			Logger:       logger,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	var err error
	if *unixPath != "" {
		s.Addr = *unixPath
		logger.Logf(obs.Info, "listening on unix:%s", *unixPath)
		err = s.ListenAndServeUnix()
	} else {
		logger.Logf(obs.Info, "listening on %s", *addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, httpd.ErrServerClosed) {
		log.Fatal(err)
	}
}

func newLogger(level string, jsonLog bool) obs.Logger {
	minLevel := obs.Info
	switch strings.ToLower(level) {
	case "debug":
		minLevel = obs.Debug
	case "warn":
		minLevel = obs.Warn
	case "error":
		minLevel = obs.Error
	}
	if jsonLog {
		lv := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}[minLevel]
		h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv})
		return obs.SlogLogger{L: slog.New(h), Attrs: []slog.Attr{slog.String("app", "httpd-echo")}}
	}
	return obs.StdLogger{L: log.New(os.Stderr, "", log.LstdFlags), Min: minLevel}
}

type echo struct {
	log       obs.Logger
	meter     *obs.Recorder
	upstreams []httpd.Address
	rr        httpd.RoundRobin[httpd.Address]
	pool      *httpd.Pool
}

type dump struct {
	Version  string              `json:"version"`
	Method   string              `json:"method"`
	Path     string              `json:"path"`
	RawQuery string              `json:"raw_query"`
	Queries  map[string][]string `json:"queries"`
	Fields   map[string][]string `json:"fields"`
}

func (e *echo) ServeHTTP(w *httpd.Responder, r *httpd.Request) {
	e.log.Logf(obs.Debug, "%s %s?%s", r.Method, r.Path, r.QueryRaw)
	switch {
	case r.Path == "/_stats":
		payload, err := codec.Encode(e.meter.Snapshot())
		if err != nil {
			w.SetStatus(500, "Internal Server Error")
			return
		}
		w.SetContentType(codec.ContentType, "")
		w.SetUncached()
		w.Write(payload)
	case e.pool != nil:
		e.forward(w, r)
	case r.Query("json") == "1":
		b, err := json.MarshalIndent(dump{
			Version:  r.Version,
			Method:   r.Method,
			Path:     r.Path,
			RawQuery: r.QueryRaw,
			Queries:  r.Queries.Map(),
			Fields:   r.Header.Map(),
		}, "", "  ")
		if err != nil {
			w.SetStatus(500, "Internal Server Error")
			return
		}
		w.SetContentType("application/json", "utf-8")
		w.Write(b)
	default:
		w.SetContentType("text/plain", "utf-8")
		fmt.Fprintf(w, "%s\n%s\n%s?%s\n%s\n\n", r.Version, r.Method, r.Path, r.QueryRaw, r.HeaderRaw)
		w.Write(httpd.UnparseRequest(r, ""))
	}
}

func (e *echo) forward(w *httpd.Responder, r *httpd.Request) {
	up, ok := e.rr.Next(e.upstreams)
	if !ok {
		w.SetStatus(502, "Bad Gateway")
		return
	}
	rep, err := e.pool.Do(context.Background(), up, r)
	if err != nil {
		w.SetStatus(502, "Bad Gateway")
		w.WriteString(err.Error())
		return
	}
	if _, status, ok := strings.Cut(rep.Head, " "); ok {
		w.Status = status
	}
	if ct := rep.Header.Get("content-type"); ct != "" {
		w.SetField("content-type", ct)
	}
	w.SetField("x-upstream", up.String())
	w.Write(rep.Body)
}

func dialRing(ctx context.Context, a httpd.Address, opts transport.Options) (*httpd.Client, error) {
	if a.IsUnix() {
		return httpd.Dial(ctx, a, opts)
	}
	b, err := transport.DialRing(ctx, a.Host, a.Port, opts)
	if err != nil {
		return nil, err
	}
	return httpd.NewClient(b, a), nil
}

func runReplay(path, target string, opts transport.Options, ring bool) error {
	src, err := transport.OpenFileRing(path, os.O_RDONLY, 0, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	var r httpd.Request
	if err := httpd.ReadRequest(src, &r, 0); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	a, err := httpd.ParseAddress(target)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var c *httpd.Client
	if ring {
		c, err = dialRing(ctx, a, opts)
	} else {
		c, err = httpd.Dial(ctx, a, opts)
	}
	if err != nil {
		return err
	}
	defer c.Close()

	rep, err := c.Do(&r)
	if err != nil {
		return err
	}
	fmt.Println(rep.Head)
	rep.Header.Each(func(k, v string) { fmt.Printf("%s: %s\n", k, v) })
	fmt.Println()
	os.Stdout.Write(rep.Body)
	return nil
}
