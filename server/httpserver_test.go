package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/proto"
)

func newTestHttpServer(t *testing.T) (*httptest.Server, func()) {
	s, clean := newTestServer(t)
	h := &HttpServer{Server: s}
	ts := httptest.NewServer(h.newHandler())
	return ts, func() {
		ts.Close()
		clean()
	}
}

func postJSON(t *testing.T, url string, args interface{}, ret interface{}) int {
	body, err := json.Marshal(args)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if ret != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(ret))
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, ret interface{}) int {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if ret != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(ret))
	}
	return resp.StatusCode
}

func TestHttpServer_Space(t *testing.T) {
	ts, clean := newTestHttpServer(t)
	defer clean()

	args := &proto.CreateSpaceArgs{Properties: proto.SpaceProperties{Name: "graph", PartitionNum: 3, ReplicaFactor: 2}}
	ret := new(proto.CreateSpaceRet)
	require.Equal(t, http.StatusServiceUnavailable, postJSON(t, ts.URL+"/space/create", args, ret))
	require.Equal(t, apierrors.CodeNoHosts, ret.Code)

	for _, addr := range []string{"10.0.0.0:9779", "10.0.0.1:9779", "10.0.0.2:9779"} {
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/host/heartbeat", &proto.HeartbeatArgs{Addr: addr}, nil))
	}
	require.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/host/heartbeat", &proto.HeartbeatArgs{Addr: "bad"}, nil))

	var hosts []proto.HostMeta
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/host/list", &hosts))
	require.Len(t, hosts, 3)

	ret = new(proto.CreateSpaceRet)
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/space/create", args, ret))
	require.Equal(t, apierrors.CodeSucceeded, ret.Code)
	sid := ret.SpaceID

	ret = new(proto.CreateSpaceRet)
	require.Equal(t, http.StatusConflict, postJSON(t, ts.URL+"/space/create", args, ret))
	require.Equal(t, apierrors.CodeExisted, ret.Code)
	require.Equal(t, sid, ret.SpaceID)

	args.IfNotExists = true
	ret = new(proto.CreateSpaceRet)
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/space/create", args, ret))
	require.Equal(t, sid, ret.SpaceID)

	meta := new(proto.SpaceMeta)
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/space/get?name=graph", meta))
	require.Equal(t, sid, meta.ID)
	require.Equal(t, "utf8", meta.Properties.CharsetName)
	require.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/space/get?name=none", nil))

	var spaces []proto.SpaceMeta
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/space/list", &spaces))
	require.Len(t, spaces, 1)

	var parts []proto.PartMeta
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/space/parts?id=1", &parts))
	require.Len(t, parts, 3)
	for _, part := range parts {
		require.Len(t, part.Hosts, 2)
	}
}

func TestHttpServer_Misc(t *testing.T) {
	ts, clean := newTestHttpServer(t)
	defer clean()

	info := new(proto.CharsetInfo)
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/charset/get?charset=utf8", info))
	require.Equal(t, "utf8_bin", info.Collate)
	require.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/charset/get?charset=gbk", nil))

	stat := make(map[string]interface{})
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/stats", &stat))
	require.Equal(t, float64(1), stat["nodeId"])

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "graphmeta_cluster_active_hosts"))
}
