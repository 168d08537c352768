package t2v

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/vecir"
)

// childResult is one lowered frame item, ready to become a GroupChild once
// the frame's full set has been collected and link-partitioned.
type childResult struct {
	pos    vecir.Point
	fp     fingerprint.Fingerprint
	isLink bool
	skip   bool // no renderable output (e.g. a tag-start marker)
}

// LowerDocument runs the Typst2Vec pass over d, lowering every page in
// parallel (one goroutine per page via errgroup) and returning a closed-world
// Module. The Builder's stores are left populated for subsequent incremental
// use; callers that only need one shot can discard b afterward.
func (b *Builder) LowerDocument(ctx context.Context, d doc.Document) (*vecir.Module, error) {
	pages := make([]vecir.Page, len(d.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range d.Pages {
		i, p := i, p
		g.Go(func() error {
			fp, err := b.lowerPage(gctx, p)
			if err != nil {
				return err
			}
			pages[i] = vecir.Page{Content: fp, Size: vecir.FixSize(p.Size)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fonts, glyphs := b.GB.Finalize()
	packed := make([]vecir.GlyphPackEntry, len(glyphs))
	for i, e := range glyphs {
		packed[i] = vecir.GlyphPackEntry{ID: vecir.DefId(i), Glyph: e}
	}

	mod := &vecir.Module{
		Fonts:  fonts,
		Glyphs: packed,
		Items:  vecir.NewItemMap(b.Snapshot()),
		Pages:  pages,
	}
	return mod, nil
}

// lowerPage lowers one page: an optional opaque background fill prepended as
// the group's first (non-link) child, followed by the page's frame items.
func (b *Builder) lowerPage(ctx context.Context, p doc.Page) (fingerprint.Fingerprint, error) {
	var prefix []childResult
	if p.Fill != nil && isOpaque(*p.Fill) {
		size := vecir.FixSize(p.Size)
		bg := b.Store(vecir.PathItem{
			D:    rectPathData(size.X, size.Y),
			Size: &size,
			Styles: []vecir.PathStyle{
				{Kind: vecir.StyleFill, Paint: b.lowerPaint(*p.Fill, shapeScale(size), false)},
			},
		})
		prefix = append(prefix, childResult{fp: bg})
	}
	return b.lowerFrameItems(ctx, p.Frame, prefix)
}

func isOpaque(p doc.Paint) bool {
	return p.Kind == doc.PaintSourceSolid && p.Color.A == 255
}

// lowerFrameItems lowers every item of f in parallel, link-partitions the
// results (prefixed by any already-lowered items such as a page background),
// and stores the resulting Group.
func (b *Builder) lowerFrameItems(ctx context.Context, f doc.Frame, prefix []childResult) (fingerprint.Fingerprint, error) {
	results := make([]childResult, len(f.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, it := range f.Items {
		i, it := i, it
		g.Go(func() error {
			r, err := b.lowerFrameItem(gctx, it)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fingerprint.Zero, err
	}

	children := make([]vecir.GroupChild, 0, len(prefix)+len(results))
	for _, r := range prefix {
		if r.skip {
			continue
		}
		children = append(children, vecir.GroupChild{Pos: r.pos, Fingerprint: r.fp, IsLink: r.isLink})
	}
	for _, r := range results {
		if r.skip {
			continue
		}
		children = append(children, vecir.GroupChild{Pos: r.pos, Fingerprint: r.fp, IsLink: r.isLink})
	}

	children = vecir.PartitionLinks(children)
	return b.Store(vecir.GroupItem{Children: children}), nil
}

// lowerFrameItem dispatches one FrameItem to its variant-specific lowering.
func (b *Builder) lowerFrameItem(ctx context.Context, it doc.FrameItem) (childResult, error) {
	switch it.Kind {
	case doc.FiGroup:
		return b.lowerGroupFrame(ctx, it)
	case doc.FiText:
		return childResult{pos: it.Pos, fp: b.lowerText(*it.Text)}, nil
	case doc.FiShape:
		return childResult{pos: it.Pos, fp: b.lowerShape(*it.Shape)}, nil
	case doc.FiImage:
		return childResult{pos: it.Pos, fp: b.lowerImage(*it.Image)}, nil
	case doc.FiLink:
		fp := b.Store(vecir.LinkItem{Href: it.Link.Href, Size: it.Link.Size})
		return childResult{pos: it.Pos, fp: fp, isLink: true}, nil
	case doc.FiTagEnd:
		if LineHintElements[it.Tag] {
			fp := b.Store(vecir.ContentHintItem{Char: '\n'})
			return childResult{pos: it.Pos, fp: fp}, nil
		}
		return childResult{skip: true}, nil
	default: // FiTagStart carries no renderable output
		return childResult{skip: true}, nil
	}
}

// lowerGroupFrame recurses into a nested frame, then wraps the recursed
// content with a clip Item (if the group is clipped) and a matrix Item (if
// the group carries a non-identity transform), innermost first.
func (b *Builder) lowerGroupFrame(ctx context.Context, it doc.FrameItem) (childResult, error) {
	grp := it.Group
	child, err := b.lowerFrameItems(ctx, grp.Frame, nil)
	if err != nil {
		return childResult{}, err
	}

	if grp.Clip != nil {
		clipPath := shapeToPathData(*grp.Clip)
		child = b.Store(vecir.ItemItem{
			Transform: vecir.ItemTransform{Kind: vecir.TransformClip, ClipPath: clipPath},
			Child:     child,
		})
	}
	if !grp.Transform.IsIdentity() {
		child = b.Store(vecir.ItemItem{
			Transform: vecir.ItemTransform{Kind: vecir.TransformMatrix, Matrix: grp.Transform},
			Child:     child,
		})
	}
	return childResult{pos: it.Pos, fp: child}, nil
}

// LineHintElements is the set of input tag names whose close marks a
// newline-equivalent content hint in the output (spec.md §3: "a heading
// close emits a \n ContentHint"). Its initial value is exactly
// {"heading"}; other block-level tags do not get an implicit line hint.
var LineHintElements = map[string]bool{
	"heading": true,
}
