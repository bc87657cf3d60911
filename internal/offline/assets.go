package offline

import (
	_ "embed"
	"net/http"
)

//go:embed assets/sw.js
var serviceWorker []byte

// ServiceWorker returns the worker script served at /sw.js.
func ServiceWorker() []byte {
	return serviceWorker
}

// ServiceWorkerHandler serves the worker script with headers that let it
// control the whole origin and keep browsers from caching a stale copy.
func ServiceWorkerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Service-Worker-Allowed", "/")
		_, _ = w.Write(serviceWorker)
	})
}
