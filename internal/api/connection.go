package api

import "net/http"

// DevModeStatus is the development-mode part of ConnectionStatus.
type DevModeStatus struct {
	IsActive bool `json:"isActive"`
	DevMode
}

// ConnectionStatus describes how the site is connected.
type ConnectionStatus struct {
	IsActive  bool          `json:"isActive"`
	IsStaging bool          `json:"isStaging"`
	DevMode   DevModeStatus `json:"devMode"`
}

// connectionStatus builds the status reported for the configured environment.
func (e Environment) connectionStatus() ConnectionStatus {
	return ConnectionStatus{
		IsActive:  e.Connected,
		IsStaging: e.Staging,
		DevMode: DevModeStatus{
			IsActive: e.DevMode.Active(),
			DevMode:  e.DevMode,
		},
	}
}

// handleConnection reports the connection status to any authenticated key.
func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Environment.connectionStatus())
}
