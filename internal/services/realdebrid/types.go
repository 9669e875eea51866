package realdebrid

// AddTorrentResponse is returned when registering a magnet. An empty ID
// means real-debrid did not accept the torrent.
type AddTorrentResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// SelectFilesResult reports the outcome of restricting a torrent to a file
// subset. API rejections come back as data in Error, not as a Go error.
type SelectFilesResult struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

// TorrentInfo describes one torrent on the real-debrid account
type TorrentInfo struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Hash     string  `json:"hash"`
	Bytes    int64   `json:"bytes"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`
	Added    string  `json:"added"`
}

// Torrent status values from the real-debrid API
const (
	StatusWaitingFilesSelection = "waiting_files_selection"
	StatusQueued                = "queued"
	StatusDownloading           = "downloading"
	StatusDownloaded            = "downloaded"
	StatusError                 = "error"
	StatusVirus                 = "virus"
	StatusDead                  = "dead"
)

// cachedFile is one file inside an instant availability variant
type cachedFile struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
}

// availability maps hash -> provider -> variants, each variant being a set
// of file id -> file. Mirrors the instant availability response layout.
type availability map[string]map[string][]map[string]cachedFile
