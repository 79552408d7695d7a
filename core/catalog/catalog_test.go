package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ap-airdrop/core/testutil"
	"github.com/AvaProtocol/ap-airdrop/model"
)

func catalogServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestNetworksFromCatalog(t *testing.T) {
	srv, hits := catalogServer(t, http.StatusOK, `{"testnets":[
		{"name":"Monad Testnet","chain":"Monad","tasks":["faucet","swap"],"score":9},
		{"name":"Berachain bArtio","chain":"Berachain","tasks":[]},
		{"name":"Monad Testnet","chain":"Monad","tasks":["stake"]}
	]}`)

	cache, err := NewCache(time.Minute)
	require.NoError(t, err)
	client := New(srv.URL, testutil.GetLogger(), WithCache(cache))

	networks := client.Networks(context.Background())
	require.Len(t, networks, 2)
	assert.Equal(t, "Monad Testnet", networks[0].Name)
	assert.Equal(t, []model.TaskKind{model.TaskFaucet, model.TaskSwap}, networks[0].Tasks)
	assert.Equal(t, 9.0, networks[0].Score)
	assert.Equal(t, []model.TaskKind{model.TaskCustom}, networks[1].Tasks)

	// served from cache
	again := client.Networks(context.Background())
	assert.Equal(t, networks, again)
	assert.Equal(t, int32(1), hits.Load())

	client.Invalidate()
	client.Networks(context.Background())
	assert.Equal(t, int32(2), hits.Load())
}

func TestNetworksFallback(t *testing.T) {
	failing, _ := catalogServer(t, http.StatusInternalServerError, `oops`)
	empty, _ := catalogServer(t, http.StatusOK, `{"testnets":[]}`)

	for name, url := range map[string]string{
		"unconfigured": "",
		"server error": failing.URL,
		"empty":        empty.URL,
		"unreachable":  "http://127.0.0.1:1/catalog",
	} {
		t.Run(name, func(t *testing.T) {
			networks := New(url, testutil.GetLogger()).Networks(context.Background())
			assert.Equal(t, len(DefaultNetworks()), len(networks))
			assert.Equal(t, "Sepolia", networks[0].Name)
		})
	}
}

func TestFallbackIsCopied(t *testing.T) {
	client := New("", testutil.GetLogger())

	first := client.Networks(context.Background())
	first[0].Name = "changed"
	first[0].Tasks[0] = model.TaskStake

	second := client.Networks(context.Background())
	assert.Equal(t, "Sepolia", second[0].Name)
	assert.Equal(t, model.TaskFaucet, second[0].Tasks[0])
}

func TestFetchReportsErrors(t *testing.T) {
	srv, _ := catalogServer(t, http.StatusNotFound, `{}`)

	_, err := New(srv.URL, testutil.GetLogger()).Fetch(context.Background())
	assert.ErrorContains(t, err, "404")
}
