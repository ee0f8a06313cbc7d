package media

import "path/filepath"

// Per-client data layout under the data directory:
// clients/<id>/{runs,audio,video,uploads}.

// ClientDir returns the root directory for one client's artifacts.
func ClientDir(dataDir, clientID string) string {
	return filepath.Join(dataDir, "clients", clientID)
}

// AudioDir returns the narration output directory for a client.
func AudioDir(dataDir, clientID string) string {
	return filepath.Join(ClientDir(dataDir, clientID), "audio")
}

// VideoDir returns the rendered video directory for a client.
func VideoDir(dataDir, clientID string) string {
	return filepath.Join(ClientDir(dataDir, clientID), "video")
}

// UploadsDir returns the upload manifest directory for a client.
func UploadsDir(dataDir, clientID string) string {
	return filepath.Join(ClientDir(dataDir, clientID), "uploads")
}
