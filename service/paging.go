package service

// PageQueryParam describes one page to request from a catalog and the rows to
// keep from its response (0-based, inclusive)
type PageQueryParam struct {
	Limit            int
	Page             int
	FirstRowToSelect int
	LastRowToSelect  int
}

// ComputePagesToQuery translates a client page/limit into the list of catalog
// pages to request, given the maximum page size supported by the catalog.
// Pages are 0-based on both sides.
func ComputePagesToQuery(clientPage, clientLimit, catalogLimit int) []PageQueryParam {
	if catalogLimit <= 0 {
		return nil
	}
	if clientLimit <= 0 {
		clientLimit = catalogLimit
	}
	firstRow := clientPage * clientLimit
	lastRow := firstRow + clientLimit - 1

	var pages []PageQueryParam
	for page := firstRow / catalogLimit; page <= lastRow/catalogLimit; page++ {
		first, last := 0, catalogLimit-1
		if page == firstRow/catalogLimit {
			first = firstRow % catalogLimit
		}
		if page == lastRow/catalogLimit {
			last = lastRow % catalogLimit
		}
		pages = append(pages, PageQueryParam{
			Limit:            catalogLimit,
			Page:             page,
			FirstRowToSelect: first,
			LastRowToSelect:  last,
		})
	}
	return pages
}

// QueryGetResult selects the rows of the page described by queryParams
func QueryGetResult[T any](queryParams *PageQueryParam, hits []T) []T {
	if queryParams.FirstRowToSelect >= len(hits) {
		return nil
	}
	last := queryParams.LastRowToSelect + 1
	if last > len(hits) {
		last = len(hits)
	}
	return hits[queryParams.FirstRowToSelect:last]
}
