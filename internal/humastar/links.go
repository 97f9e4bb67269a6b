package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EntryPoint is the path every collection links "up" to.
const EntryPoint = "/health"

// LinkSet holds RFC 8288 Link header values keyed by operation path.
type LinkSet struct {
	byPath map[string][]string
}

// AutoLinks walks the OpenAPI paths and derives hypermedia links between
// collections, items and the entry point. Operations tagged skipTag (the SSE
// viewer endpoints) are left out. Call after all routes are registered.
func AutoLinks(api huma.API, skipTag string) *LinkSet {
	ls := &LinkSet{byPath: map[string][]string{}}
	oapi := api.OpenAPI()

	var collections, items []string
	for p, pi := range oapi.Paths {
		if slices.Contains(primaryTags(pi), skipTag) {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	for _, item := range items {
		parent := path.Dir(item)
		if _, ok := oapi.Paths[parent]; ok {
			ls.add(item, parent, "collection")
			ls.add(parent, item, "item")
		}
	}

	for _, coll := range collections {
		if coll == EntryPoint {
			continue
		}
		ls.add(coll, EntryPoint, "up")
		ls.add(EntryPoint, coll, lastSegment(coll))
		if pi := oapi.Paths[coll]; pi.Post != nil {
			ls.add(coll, coll, "create-form")
		}
	}

	ls.add(EntryPoint, "/openapi.json", "service-desc")
	ls.add(EntryPoint, "/docs", "service-doc")

	for _, p := range append(collections, items...) {
		if ref := responseSchemaRef(oapi.Paths[p]); ref != "" {
			ls.add(p, "/openapi.json#/components/schemas/"+ref, "describedby")
		}
	}

	return ls
}

// For returns the Link header values for an operation path.
func (ls *LinkSet) For(opPath string) []string {
	if ls == nil {
		return nil
	}
	return ls.byPath[opPath]
}

// Transformer returns a Huma Transformer that writes the derived links, a
// self link for item paths, and pagination links from [Pager] bodies.
func (ls *LinkSet) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range ls.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}
		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}
		return v, nil
	}
}

func (ls *LinkSet) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if slices.Contains(ls.byPath[from], val) {
		return
	}
	ls.byPath[from] = append(ls.byPath[from], val)
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete} {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

func responseSchemaRef(pi *huma.PathItem) string {
	if pi == nil || pi.Get == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if !strings.HasPrefix(code, "2") || resp.Content == nil {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				return path.Base(mt.Schema.Ref)
			}
		}
	}
	return ""
}
