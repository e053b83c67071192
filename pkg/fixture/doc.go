// Package fixture defines declarative mock data and resolves it per request.
//
// A fixture document maps URL specs to an ordered list of candidate
// responses:
//
//	/users/:
//	  - filter: {params: {id: 5}}
//	    data: {id: 5, name: ada}
//	  - status_code: 404
//	stats/daily:
//	  - data: []
//
// A key with a leading slash is compared to the request path only. Any other
// key is appended to the connection base URL and compared to the full request
// URL. Keys are visited in document order and the first match wins; within an
// entry the first candidate whose filter matches wins.
//
// Documents may be JSON or YAML. Both are decoded through yaml.v3 nodes so the
// document order of keys is kept. A mapping of the form {"$set": [...]} is
// decoded to a matching.Set.
//
// Candidates may reference variables with {{vars.name}} placeholders. The
// Resolver substitutes them on every request so values written to the store
// by earlier responses are visible to later ones.
package fixture
