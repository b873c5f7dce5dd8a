package client

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/resolver"
)

const lbResolverSchema = "static"

func init() {
	resolver.Register(&LBBuilder{})
}

// LBBuilder resolves "static:///host1:port,host2:port" into a fixed address list.
type LBBuilder struct{}

func (lb *LBBuilder) Build(target resolver.Target, cc resolver.ClientConn,
	opts resolver.BuildOptions) (resolver.Resolver, error,
) {
	endpoints := strings.Split(target.Endpoint(), ",")

	r := &LBResolver{
		endpoints: endpoints,
		cc:        cc,
	}
	r.ResolveNow(resolver.ResolveNowOptions{})
	return r, nil
}

func (lb *LBBuilder) Scheme() string {
	return lbResolverSchema
}

type LBResolver struct {
	endpoints []string
	cc        resolver.ClientConn
}

func (lr *LBResolver) ResolveNow(opts resolver.ResolveNowOptions) {
	addresses := make([]resolver.Address, 0, len(lr.endpoints))
	for i, addr := range lr.endpoints {
		addresses = append(addresses, resolver.Address{
			Addr:       addr,
			ServerName: fmt.Sprintf("master-%d", i+1),
		})
	}

	lr.cc.UpdateState(resolver.State{Addresses: addresses})
}

func (lr *LBResolver) Close() {}
