/*
Package affinity loads the task id to group id table that drives placement.

The table is plain text, one entry per line:

	<taskId> <groupId>

Fields are whitespace separated base-10 integers. Blank lines are ignored.
There is no header, comment syntax or escaping: any other line fails the
whole table with a FormatError wrapping ErrMalformed, and no partial map is
returned. Several tasks may share a group. A task listed twice keeps its
last group (Map.Duplicates reports which ids were overwritten).

# Sources

The scheduler reads the table through the Source interface at the start of
every pass:

  - FileSource: the text file above, DefaultPath unless configured
  - BoltSource: a table imported into the bbolt store with
    "groupsched affinity import"
  - StaticSource: an in-memory table

A table that is not there at all (missing file, nothing imported) is not an
error. Load returns an empty map and the pass simply places nothing.
*/
package affinity
