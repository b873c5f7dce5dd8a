package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/profile"
	"github.com/cubefs/cubefs/blobstore/common/rpc"
	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/metrics"
	"github.com/cubefs/graphmeta/proto"
)

const (
	defaultShutdownTimeoutS      = 10
	defaultReadRequestTimeoutS   = 30
	defaultWriteResponseTimeoutS = 30
)

type HttpServer struct {
	httpServer *http.Server

	*Server
}

func NewHttpServer(server *Server, addr string) *HttpServer {
	h := &HttpServer{Server: server}
	ph := profile.NewProfileHandler(addr)
	h.httpServer = &http.Server{
		Addr:         addr,
		Handler:      rpc.MiddlewareHandlerWith(h.newHandler(), ph),
		ReadTimeout:  defaultReadRequestTimeoutS * time.Second,
		WriteTimeout: defaultWriteResponseTimeoutS * time.Second,
	}
	return h
}

// Serve blocks until the server is stopped.
func (h *HttpServer) Serve() error {
	log.Info("http server is running at:", h.httpServer.Addr)
	if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (h *HttpServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeoutS*time.Second)
	defer cancel()

	h.httpServer.Shutdown(ctx)
}

func (h *HttpServer) newHandler() *rpc.Router {
	r := rpc.New()
	r.Handle(http.MethodPost, "/space/create", h.CreateSpace, rpc.OptArgsBody())
	r.Handle(http.MethodGet, "/space/get", h.GetSpace, rpc.OptArgsQuery())
	r.Handle(http.MethodGet, "/space/list", h.ListSpaces)
	r.Handle(http.MethodGet, "/space/parts", h.GetParts, rpc.OptArgsQuery())
	r.Handle(http.MethodPost, "/host/heartbeat", h.Heartbeat, rpc.OptArgsBody())
	r.Handle(http.MethodGet, "/host/list", h.ListHosts)
	r.Handle(http.MethodGet, "/charset/get", h.GetCharset, rpc.OptArgsQuery())
	r.Handle(http.MethodGet, "/stats", h.Stats)

	metricsHandler := promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
	r.Handle(http.MethodGet, "/metrics", func(c *rpc.Context) {
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})
	return r
}

func (h *HttpServer) CreateSpace(c *rpc.Context) {
	ctx := c.Request.Context()
	args := new(proto.CreateSpaceArgs)
	if err := c.ParseArgs(args); err != nil {
		c.RespondError(apierrors.ErrInvalidArgument)
		return
	}

	ret, err := h.createSpace(ctx, args)
	if err != nil {
		c.RespondStatusData(apierrors.StatusOf(err), ret)
		return
	}
	c.RespondJSON(ret)
}

func (h *HttpServer) GetSpace(c *rpc.Context) {
	ctx := c.Request.Context()
	args := new(proto.GetSpaceArgs)
	if err := c.ParseArgs(args); err != nil {
		c.RespondError(apierrors.ErrInvalidArgument)
		return
	}

	meta, err := h.getSpace(ctx, args)
	if err != nil {
		c.RespondError(err)
		return
	}
	c.RespondJSON(meta)
}

func (h *HttpServer) ListSpaces(c *rpc.Context) {
	spaces, err := h.master.ListSpaces(c.Request.Context())
	if err != nil {
		c.RespondError(err)
		return
	}
	c.RespondJSON(spaces)
}

func (h *HttpServer) GetParts(c *rpc.Context) {
	ctx := c.Request.Context()
	args := new(proto.GetPartsArgs)
	if err := c.ParseArgs(args); err != nil {
		c.RespondError(apierrors.ErrInvalidArgument)
		return
	}

	parts, err := h.master.GetParts(ctx, args.ID)
	if err != nil {
		c.RespondError(err)
		return
	}
	c.RespondJSON(parts)
}

func (h *HttpServer) Heartbeat(c *rpc.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContextSafe(ctx)
	args := new(proto.HeartbeatArgs)
	if err := c.ParseArgs(args); err != nil {
		c.RespondError(apierrors.ErrInvalidArgument)
		return
	}

	if err := h.master.HandleHeartbeat(ctx, args.Addr); err != nil {
		span.Warnf("handle heartbeat of %s failed: %s", args.Addr, err)
		c.RespondError(err)
		return
	}
	c.RespondStatus(http.StatusOK)
}

func (h *HttpServer) ListHosts(c *rpc.Context) {
	c.RespondJSON(h.master.ListHosts(c.Request.Context()))
}

func (h *HttpServer) GetCharset(c *rpc.Context) {
	args := new(proto.CharsetArgs)
	if err := c.ParseArgs(args); err != nil {
		c.RespondError(apierrors.ErrInvalidArgument)
		return
	}

	info, err := h.getCharset(args)
	if err != nil {
		c.RespondError(err)
		return
	}
	c.RespondJSON(info)
}

func (h *HttpServer) Stats(c *rpc.Context) {
	c.RespondJSON(h.master.RaftStat())
}
