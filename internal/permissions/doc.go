// Package permissions models the per-group access rights of portal users and
// renders them for humans.
//
// The export command serialises a group's []Permission as compact JSON into the
// permissions_json report column; the mail merge reads that column back and
// turns it into a readable block with FormatLabels:
//
//	alice (Alice Example)
//	- Öffentliche Daten lesen
//	- Anträge stellen
//
// Only the capability flags listed in Capabilities produce lines. The locked
// flag is state, not a capability, and is never rendered.
package permissions
