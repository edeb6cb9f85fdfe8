package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFindBrokenMixedList(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})

	c := New(100*time.Millisecond, "sitelens-test", 20, 5, zap.NewNop())
	broken := c.FindBroken(context.Background(), []string{
		srv.URL + "/ok",
		srv.URL + "/missing",
		srv.URL + "/slow",
	})

	assert.Equal(t, []string{srv.URL + "/missing", srv.URL + "/slow"}, broken)
}

func TestFindBrokenSkipsNonHTTPSchemes(t *testing.T) {
	c := New(time.Second, "sitelens-test", 20, 5, zap.NewNop())
	broken := c.FindBroken(context.Background(), []string{
		"mailto:info@example.com",
		"tel:+15551234567",
		"ftp://example.com/file",
	})
	assert.Empty(t, broken)
}

func TestFindBrokenHonorsCap(t *testing.T) {
	var hits int
	var mu = make(chan struct{}, 1)
	mu <- struct{}{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-mu
		hits++
		mu <- struct{}{}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	links := make([]string, 10)
	for i := range links {
		links[i] = srv.URL + "/" + string(rune('a'+i))
	}

	c := New(time.Second, "sitelens-test", 3, 2, zap.NewNop())
	broken := c.FindBroken(context.Background(), links)

	assert.Len(t, broken, 3)
	assert.Equal(t, links[:3], broken)
	assert.Equal(t, 3, hits)
}

func TestFindBrokenRetriesHeadRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(time.Second, "sitelens-test", 20, 5, zap.NewNop())
	broken := c.FindBroken(context.Background(), []string{srv.URL})
	assert.Empty(t, broken)
}

func TestFindBrokenEmptyInput(t *testing.T) {
	c := New(time.Second, "sitelens-test", 20, 5, zap.NewNop())
	assert.Empty(t, c.FindBroken(context.Background(), nil))
}
