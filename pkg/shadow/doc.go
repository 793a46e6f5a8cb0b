// Package shadow reconciles an in-memory description of a DOM tree with a
// real document.
//
// A shadow node (*Text or *Element) owns at most one DOM node. Inflate
// creates it; ReplaceWith swaps one shadow node for another, reusing the
// DOM node in place when both are texts or both are elements with the same
// tag; Remove detaches it.
//
// Attribute values and child slots may be reactive signals. The reconciler
// installs one Effect per reactive attribute and per bound child slot, so a
// signal write updates only what reads it:
//
//	count := reactive.NewSignal(rt, 0)
//	label := reactive.NewComputed(rt, func() string {
//	    return fmt.Sprintf("Num clicks: %d", count.Value())
//	})
//	button := shadow.Button(shadow.Attrs{
//	    "onClick": dom.Func(func() { count.Update(inc) }),
//	}, shadow.TextOf(rt, label))
//
//	r := shadow.NewRenderer(rt, doc)
//	err := r.Mount(doc.Body(), button)
//
// Children are diffed by position only. Inserting or removing in the middle
// of a list reconciles every later slot against whatever was at the same
// index before.
//
// Restore adopts server-rendered markup: it walks an existing DOM subtree
// and returns shadow nodes bound to it without creating new DOM nodes.
package shadow
