package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// Endpoint paths registered by Register.
const (
	LivenessPath  = "/health"
	ReadinessPath = "/ready"
	VersionPath   = "/version"
)

// VersionInfo is served on VersionPath. GoVersion is filled in by
// VersionHandler.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Register mounts the probes and the version endpoint on mux. Only GET and
// HEAD are routed; other methods get 405 from the mux.
func Register(mux *http.ServeMux, checker *Checker, info VersionInfo) {
	mux.Handle("GET "+LivenessPath, checker.LivenessHandler())
	mux.Handle("GET "+ReadinessPath, checker.ReadinessHandler())
	mux.Handle("GET "+VersionPath, VersionHandler(info))
}

// LivenessHandler always answers 200 while the process serves requests.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler runs every registered check and answers 503 unless all
// of them pass:
//
//	{"status":"degraded","checks":{"model":{"status":"unhealthy","message":"no model loaded"}}, ...}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.CheckReadiness(r.Context())
		code := http.StatusOK
		if status.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		respond(w, r, code, status)
	}
}

func VersionHandler(info VersionInfo) http.HandlerFunc {
	info.GoVersion = runtime.Version()
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, info)
	}
}

func respond(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
