// Package common holds the JSON-RPC parameter, result and notification
// types shared by the prewarm server and its clients.
package common

import "github.com/skyreel/prewarm/pkg/warmlib"

// Method names exposed by the daemon.
const (
	MethodScan          = "preload.scan"
	MethodAddElement    = "preload.addElement"
	MethodNavigate      = "preload.navigate"
	MethodPlaybackStart = "preload.reportPlaybackStart"
	MethodPlaybackStop  = "preload.reportPlaybackStop"
	MethodModalOpen     = "preload.reportModalOpen"
	MethodGetStatus     = "preload.getStatus"
	MethodDump          = "preload.dump"
	MethodClearState    = "preload.clearState"
	MethodVersion       = "system.getVersion"
)

// Notification methods pushed to websocket subscribers.
const (
	NotifyProgress = "preload.progress"
	NotifyComplete = "preload.complete"
	NotifyFailed   = "preload.failed"
)

// ScanParams carries a page document for discovery, plus the location
// it was rendered at so the page context follows the scan.
type ScanParams struct {
	Location string `json:"location,omitempty"`
	HTML     string `json:"html"`
}

// ScanResult reports how many new URLs a scan contributed.
type ScanResult struct {
	Added int `json:"added"`
}

// ElementParams wraps a single reported media element.
type ElementParams struct {
	Element warmlib.MediaElement `json:"element"`
}

// NavigateParams reports a document location change.
type NavigateParams struct {
	Location string `json:"location"`
}

// URLParams names a video URL for playback reports.
type URLParams struct {
	URL string `json:"url"`
}

// StatusResult is the aggregate queue state for debug and telemetry
// display.
type StatusResult struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	InFlight        int     `json:"inFlight"`
	Pending         int     `json:"pending"`
	Failed          int     `json:"failed"`
	PercentComplete float64 `json:"percentComplete"`
}

// DumpResult is the human-inspectable queue listing.
type DumpResult struct {
	Entries []warmlib.EntryDump `json:"entries"`
}

// VersionResult describes the running daemon build.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// EmptyResult is the placeholder for methods returning no data.
type EmptyResult struct{}

// ProgressNotification is pushed on fetch progress.
type ProgressNotification struct {
	URL      string  `json:"url"`
	Progress float64 `json:"progress"`
}

// CompleteNotification is pushed when an entry finishes.
type CompleteNotification struct {
	URL string `json:"url"`
}

// FailedNotification is pushed when an entry is abandoned.
type FailedNotification struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}
