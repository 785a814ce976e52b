package sync

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

// StartSyncService mounts the ledger-sync routes and serves them. Blocks,
// callers run it in a goroutine.
func StartSyncService(cfg map[string]interface{}, deps *Deps) {
	router := mux.NewRouter()

	router.HandleFunc("/sync/transactions", IngestTransactions(deps)).Methods("POST")
	router.HandleFunc("/sync/upload", UploadStatement(deps)).Methods("POST")
	router.HandleFunc("/sync/run", RunSync(deps)).Methods("POST")
	router.HandleFunc("/sync/unresolved/export", ExportUnresolved(deps)).Methods("GET")
	router.HandleFunc("/sync/health", HealthHandler).Methods("GET")

	port := ""
	if cfg != nil {
		if p, ok := cfg["port"].(string); ok {
			port = p
		}
	}
	if port == "" {
		port = os.Getenv("SYNC_SERVICE_PORT")
	}
	if port == "" {
		port = "7243"
	}

	log.Println("Sync Service started on :" + port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Sync Service failed: %v", err)
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Sync Service is active"))
}
