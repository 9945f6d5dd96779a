// Package clientip resolves the originating client address of an HTTP request
// when the API sits behind a reverse proxy at the front desk or in the cloud.
//
// Proxy headers are consulted in the order given to GetIP or Middleware and
// the first valid address wins. With no headers configured only the TCP peer
// address is used, which is the safe choice when the server is exposed
// directly. X-Forwarded-For contributes its left-most entry.
//
//	r.Use(clientip.Middleware(clientip.DefaultHeaders...))
//	ip := clientip.FromContext(r.Context())
package clientip
