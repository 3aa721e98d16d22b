package vimeo

// Payload is a decoded JSON object as received from the API.
type Payload map[string]any

// Paging carries the pagination metadata of a collection response, with each
// link already converted into a request derived from the one that produced
// the response.
type Paging struct {
	TotalCount   int
	Page         int
	ItemsPerPage int

	Next     *Request
	Previous *Request
	First    *Request
	Last     *Request
}

// Response is the outcome of one successful request resolution. A response
// is created once, fully populated, and never mutated afterward.
type Response struct {
	// Model is the typed model the mapper produced from the payload.
	Model any

	// Payload is the raw decoded JSON the response was parsed from.
	Payload Payload

	// IsCachedResponse is true when the payload came from the response cache
	// rather than the network.
	IsCachedResponse bool

	// IsFinalResponse is false only for the provisional cache delivery of a
	// CacheThenNetwork request; a final delivery may still follow.
	IsFinalResponse bool

	// Paging is non-nil when the payload carried a pagination block.
	Paging *Paging
}

// parsePaging extracts the pagination block from payload, deriving the page
// requests from req. Returns nil when the payload has no paging object.
func parsePaging(req Request, payload Payload) *Paging {
	raw, ok := payload["paging"].(map[string]any)
	if !ok {
		return nil
	}

	paging := &Paging{
		TotalCount:   intField(payload, raw, "total"),
		Page:         intField(payload, raw, "page"),
		ItemsPerPage: intField(payload, raw, "per_page"),
	}

	if link, ok := raw["next"].(string); ok && link != "" {
		r := req.pageRequest(link)
		paging.Next = &r
	}
	if link, ok := raw["previous"].(string); ok && link != "" {
		r := req.pageRequest(link)
		paging.Previous = &r
	}
	if link, ok := raw["first"].(string); ok && link != "" {
		r := req.pageRequest(link)
		paging.First = &r
	}
	if link, ok := raw["last"].(string); ok && link != "" {
		r := req.pageRequest(link)
		paging.Last = &r
	}

	return paging
}

// intField reads a numeric field from the payload root, falling back to the
// paging object. The API serves the counters at the top level; older
// responses nest them under paging.
func intField(payload, paging map[string]any, key string) int {
	for _, m := range []map[string]any{payload, paging} {
		switch v := m[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return 0
}
