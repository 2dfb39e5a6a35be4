// Package highdeg peels vertices whose out-degree exceeds the cap the
// counting engines are sized for.
//
// A peeled vertex h leaves the graph together with all its edges. Before it
// goes, every remaining edge x -> y with both endpoints adjacent to h is a
// triangle {h, x, y}, so the triangles through h are counted (and optionally
// listed) by streaming the graph once against h's neighborhood. What is left
// is a graph whose maximum out-degree is at most the cap and whose triangles
// are exactly the ones not touching a peeled vertex.
package highdeg
