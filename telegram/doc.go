// Package telegram parses chat history export files and bulk-imports their
// messages into the store. The export format is the JSON document produced
// by the desktop client's export feature; decoding is lenient, dropping
// malformed records instead of aborting the import.
package telegram
