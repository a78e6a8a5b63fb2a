/*Package interval implements a union of genomic intervals, loaded from a BED
  file or a samtools-style region string, and queried one position at a time.
  Overlapping and touching intervals are merged; the set does not remember
  where one input interval ended and the next began.
*/
package interval
