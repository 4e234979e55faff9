// Package testutil provides fixtures shared by the package tests: package
// records, repositories, egg archives and a file server for them.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestServer is an HTTP server serving the files of a directory.
type TestServer struct {
	Server *httptest.Server
	URL    string
}

// NewTestServer starts a server for dir. It is closed when the test ends.
func NewTestServer(t testing.TB, dir string) *TestServer {
	t.Helper()
	server := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(server.Close)
	return &TestServer{Server: server, URL: server.URL + "/"}
}

// NewHandlerServer starts a server for an arbitrary handler.
func NewHandlerServer(t testing.TB, handler http.Handler) *TestServer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &TestServer{Server: server, URL: server.URL + "/"}
}
