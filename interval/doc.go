/*Package interval holds the canonical in-memory representation of genomic
  interval tables: typed intervals with a fixed column schema, loading and
  validation, canonical (chrom, start, end) ordering, and BED-style
  tab-separated I/O.

  All coordinates are 0-based and half-open, and every position is assumed to
  fit in a PosType.  A Set is treated as immutable once built; functions in
  this package return new Sets rather than modifying their arguments.
*/
package interval
