/*Package overlap implements bedtools-style interval algebra (intersect,
  merge, closest and coverage) natively over interval.Sets.

  Every operation is a pure function of its inputs.  Operations that emit
  per-A rows preserve A's order, and multiple B matches for one A row are
  reported in B's order, so results are deterministic for a given input
  order.
*/
package overlap
