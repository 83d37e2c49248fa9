// Package mailmerge drives a mail-merge run: it loads the tab-separated data
// file, optionally expands the permissions_json column into readable text, and
// renders, sends and reports one message per row in file order.
//
// Real runs are paced with a token-bucket limiter (one message per send
// delay); dry runs are not paced.
package mailmerge
