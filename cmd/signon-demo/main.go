// Command signon-demo runs a minimal host app around the signon service:
// file-backed users and accounts, in-memory sessions, and Google/GitHub
// providers configured from the environment.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/lanternhq/signon"
	"github.com/lanternhq/signon/stores"
)

func main() {
	addr := os.Getenv("SIGNON_DEMO_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	storagePath := os.Getenv("SIGNON_DEMO_STORAGE")
	if storagePath == "" {
		storagePath = "./signon-data"
	}

	fsStore := stores.NewFSStore(storagePath)

	svc := signon.New(fsStore)
	svc.AppName = "SignonDemo"
	svc.BaseURL = "http://localhost" + addr
	svc.Credential = &signon.CredentialConfig{}
	svc.Sessions = stores.NewMemorySessionStore()
	svc.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc.RegisterProvider(signon.GoogleProvider("", "", svc.BaseURL+"/auth/callback/google"))
	svc.RegisterProvider(signon.GitHubProvider("", "", svc.BaseURL+"/auth/callback/github"))

	mw := svc.NewMiddleware()

	mux := http.NewServeMux()
	mux.Handle("/auth/", http.StripPrefix("/auth", svc.Handler()))
	mux.Handle("/me", mw.EnsureUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userId": "` + signon.UserID(r) + `"}`))
	})))

	svc.Logger.Info("signon demo listening", "addr", addr, "storage", storagePath)
	if err := http.ListenAndServe(addr, mux); err != nil {
		svc.Logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}
