package imaging

import (
	"github.com/nao1215/webharvest/internal/model"
)

// Aggregate flattens the per-page image inventories into one globally
// ordered worklist. Pages are walked in crawl order and at most
// perPageCap references are taken from each, in document order;
// perPageCap <= 0 disables the cap. Every returned reference carries
// its page context and a gapless 1-based GlobalIndex.
//
// The cap is applied here and only here. Page.Images always holds the
// full inventory, so reports can state how many images a page really
// had next to how many were taken.
func Aggregate(pages []*model.Page, perPageCap int) []model.ImageRef {
	refs := make([]model.ImageRef, 0)
	global := 0

	for pageNo, page := range pages {
		imgs := page.Images
		if perPageCap > 0 && len(imgs) > perPageCap {
			imgs = imgs[:perPageCap]
		}

		for _, img := range imgs {
			global++
			ref := img
			ref.PageURL = page.URL
			ref.PageTitle = page.Title
			ref.PageNumber = pageNo + 1
			ref.GlobalIndex = global
			refs = append(refs, ref)
		}
	}

	return refs
}
