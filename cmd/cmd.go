// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/common/profile"
	"github.com/cubefs/cubefs/blobstore/common/rpc"
	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"
	_ "github.com/cubefs/cubefs/blobstore/util/version"
	"golang.org/x/sync/errgroup"

	"github.com/cubefs/graphmeta/common/raft"
	"github.com/cubefs/graphmeta/master"
	"github.com/cubefs/graphmeta/master/catalog"
	"github.com/cubefs/graphmeta/server"
	"github.com/cubefs/graphmeta/util"
)

const (
	defaultHttpBindPort = 9559
	defaultGrpcBindPort = 9560
)

// Config service config
type Config struct {
	server.Config

	HttpBindPort  uint32    `json:"http_bind_port"`
	GrpcBindPort  uint32    `json:"grpc_bind_port"`
	MaxProcessors int       `json:"max_processors"`
	LogLevel      log.Level `json:"log_level"`
}

func main() {
	config.Init("f", "", "graphmeta.json")

	cfg := &Config{Config: server.Config{Config: master.Config{CatalogConfig: catalog.DefaultConfig()}}}
	if err := config.Load(cfg); err != nil {
		log.Fatal(errors.Detail(err))
	}

	initConfig(cfg)
	registerLogLevel()
	modifyOpenFiles()
	log.SetOutputLevel(cfg.LogLevel)

	span, ctx := trace.StartSpanFromContext(context.Background(), "")
	startServer, err := server.NewServer(ctx, &cfg.Config)
	if err != nil {
		log.Fatal(errors.Detail(err))
	}

	httpServer := server.NewHttpServer(startServer, ":"+strconv.Itoa(int(cfg.HttpBindPort)))
	grpcServer := server.NewRPCServer(startServer)
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(int(cfg.GrpcBindPort)))
	if err != nil {
		log.Fatalf("listen grpc port failed: %s", err)
	}

	eg := errgroup.Group{}
	eg.Go(httpServer.Serve)
	eg.Go(func() error { return grpcServer.Serve(lis) })
	errCh := make(chan error, 1)
	go func() { errCh <- eg.Wait() }()

	// wait for signal or a server exits
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	select {
	case sig := <-ch:
		span.Infof("receive signal %s, stopping", sig)
	case err = <-errCh:
		span.Errorf("server exits: %v", err)
	}

	// stop all server
	grpcServer.Stop()
	httpServer.Stop()
	startServer.Close()
}

func registerLogLevel() {
	logLevelPath, logLevelHandler := log.ChangeDefaultLevelHandler()
	profile.HandleFunc(http.MethodPost, logLevelPath, func(c *rpc.Context) {
		logLevelHandler.ServeHTTP(c.Writer, c.Request)
	})
	profile.HandleFunc(http.MethodGet, logLevelPath, func(c *rpc.Context) {
		logLevelHandler.ServeHTTP(c.Writer, c.Request)
	})
}

func modifyOpenFiles() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Fatalf("getting rlimit failed: %s", err)
	}
	log.Info("system limit: ", rLimit)

	if rLimit.Cur >= 102400 && rLimit.Max >= 102400 {
		return
	}

	rLimit.Cur = 1024000
	rLimit.Max = 1024000

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Fatalf("setting rlimit failed: %s", err)
	}
	err = syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Fatalf("getting rlimit failed: %s", err)
	}
	log.Info("system limit: ", rLimit)
}

func initConfig(cfg *Config) {
	if cfg.HttpBindPort == 0 {
		cfg.HttpBindPort = defaultHttpBindPort
	}
	if cfg.GrpcBindPort == 0 {
		cfg.GrpcBindPort = defaultGrpcBindPort
	}
	if cfg.StoreConfig.Path == "" {
		cfg.StoreConfig.Path = "./run/store"
	}
	if cfg.MaxProcessors > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcessors)
	}

	raftCfg := &cfg.RaftConfig
	if raftCfg.RaftConfig.NodeID == 0 {
		raftCfg.RaftConfig.NodeID = 1
	}
	if len(raftCfg.Members) == 0 {
		ip, err := util.GetLocalIp()
		if err != nil {
			log.Fatalf("can't get local ip address, please set the raft members")
		}
		raftCfg.Members = []raft.Member{{
			NodeID: raftCfg.RaftConfig.NodeID,
			Host:   net.JoinHostPort(ip, strconv.Itoa(int(cfg.GrpcBindPort))),
		}}
	}
}
