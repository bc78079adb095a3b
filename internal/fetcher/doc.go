// Package fetcher retrieves resort pages over HTTP.
//
// A fetch never returns a Go error to its caller: transport failures, non-200
// responses, timeouts and short-circuited hosts are reported as a Result with
// OK set to false and Err holding one of the named outcomes. Response bodies
// are decoded to UTF-8 using the charset declared by the server or the page,
// falling back to content sniffing.
package fetcher
