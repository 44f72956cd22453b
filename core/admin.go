package core

import (
	"encoding/json"
	"net/http"
	"os"
)

// Health answers liveness probes.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// EnsureSchema re-runs table creation; safe to hit repeatedly after an
// upgrade adds tables.
func (a *App) EnsureSchema(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if err := a.DB.EnsureSchema(); err != nil {
		Errorf("ensure schema: %v", err)
		http.Error(w, "schema error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("schema ok"))
}

// Diag reports where the data dir resolved to and whether it is writable.
func (a *App) Diag(w http.ResponseWriter, r *http.Request) {
	dataDir := a.Cfg.DataDir
	info := map[string]interface{}{
		"data_dir": dataDir,
		"db_path":  a.Cfg.DBPath,
		"exists":   false,
		"writable": false,
	}
	if st, err := os.Stat(dataDir); err == nil && st.IsDir() {
		info["exists"] = true
		marker := dataDir + "/.writable"
		if f, err := os.Create(marker); err == nil {
			f.Close()
			os.Remove(marker)
			info["writable"] = true
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		Debugf("diag: encoding: %v", err)
	}
}
