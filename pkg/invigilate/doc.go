// Package invigilate keeps one logging context per caller-identified unit
// and resolves an effective logger for each of them.
//
// Units form a tree discovered at registration time: a new unit is linked
// under the nearest already-registered ancestor found within MaxDepth steps
// of its parent chain. Assigning a logger to a context pushes the new value
// down to every descendant still tracking the old one, while descendants
// that were given their own logger keep it until they are Reset.
//
// Logging goes through a Proxy, which looks each method up on the context's
// logger, then on the default logger, then on the silent logger, so a call
// never fails because a logger lacks a method.
//
//	var log = invigilate.MustRegister("app/db", parents).Proxy()
//
//	log.Warn("slow query", "took", d)
package invigilate
