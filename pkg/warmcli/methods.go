package warmcli

import (
	"github.com/skyreel/prewarm/common"
	"github.com/skyreel/prewarm/pkg/warmlib"
)

// Scan posts a page document (and optionally its location) for
// discovery.
func (c *Client) Scan(location, html string) (*common.ScanResult, error) {
	return invoke[common.ScanResult](c, common.MethodScan, &common.ScanParams{
		Location: location,
		HTML:     html,
	})
}

// AddElement reports one dynamically-inserted media element.
func (c *Client) AddElement(el warmlib.MediaElement) error {
	_, err := invoke[common.EmptyResult](c, common.MethodAddElement, &common.ElementParams{Element: el})
	return err
}

// Navigate reports a document location change.
func (c *Client) Navigate(location string) error {
	_, err := invoke[common.EmptyResult](c, common.MethodNavigate, &common.NavigateParams{Location: location})
	return err
}

// ReportPlaybackStart boosts url to the playing band.
func (c *Client) ReportPlaybackStart(url string) error {
	_, err := invoke[common.EmptyResult](c, common.MethodPlaybackStart, &common.URLParams{URL: url})
	return err
}

// ReportPlaybackStop clears url's playing boost.
func (c *Client) ReportPlaybackStop(url string) error {
	_, err := invoke[common.EmptyResult](c, common.MethodPlaybackStop, &common.URLParams{URL: url})
	return err
}

// ReportModalOpen registers a video the user opened in a modal.
func (c *Client) ReportModalOpen(el warmlib.MediaElement) error {
	_, err := invoke[common.EmptyResult](c, common.MethodModalOpen, &common.ElementParams{Element: el})
	return err
}

// Status returns the aggregate queue state.
func (c *Client) Status() (*common.StatusResult, error) {
	return invoke[common.StatusResult](c, common.MethodGetStatus, nil)
}

// Dump returns the queue in scheduling order.
func (c *Client) Dump() (*common.DumpResult, error) {
	return invoke[common.DumpResult](c, common.MethodDump, nil)
}

// ClearState drops the daemon's persisted snapshot and cache records.
func (c *Client) ClearState() error {
	_, err := invoke[common.EmptyResult](c, common.MethodClearState, nil)
	return err
}

// Version returns the daemon build info.
func (c *Client) Version() (*common.VersionResult, error) {
	return invoke[common.VersionResult](c, common.MethodVersion, nil)
}
