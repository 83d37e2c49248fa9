// Package report turns the portal datasets into the tab-separated group report.
//
// For every group Build decides inclusion with three independent filters
// (financial-year marker, open payout request in a semester, no payout request
// in a semester), collects the addresses tagged with one of the requested usage
// categories and optionally attaches the group's permission list as compact
// JSON. Rows come out ordered by group id.
//
// Writer renders rows with the header fs_id, fs_name, addresses, followed by
// permissions_json and request_id when those options are active.
package report
