/*
Package shape models the layered items produced by the simulation and their short-key encoding.

A shape is a stack of up to four layers; each layer holds four quadrants numbered clockwise
from the top right. A filled quadrant is a kind/color pair, an empty one is "--":

	CuRuSuWu           one layer: uncolored circle, rectangle, star, windmill
	--Cr----:RbRbRbRb  two layers, lowest first

Decode and Encode are exact inverses over well-formed keys, and Hash is the canonical key.
The Quadrant* predicates inspect the top layer and report the matched character with its
offset in the key; QuadrantIndexForOffset maps such an offset back to a quadrant.
*/
package shape
