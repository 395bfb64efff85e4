package baf

import (
	"fmt"
	"strings"
)

// Visualize renders the datum tree as a human-readable pre-order listing.
// Each line is "<hex_offset> (<hex_size>) <name>: <typename>", indented two
// spaces per depth. Runs of scalar array elements collapse to a single
// "<hex_offset> ..." line; block elements get their own subtree. Empty
// optionals are omitted.
func Visualize(root Datum) string {
	var sb strings.Builder
	visualizeInto(&sb, root, "", 0)
	return sb.String()
}

func visualizeInto(sb *strings.Builder, d Datum, name string, depth int) {
	if od, ok := d.(*optionalDatum); ok {
		if od.item != nil {
			visualizeInto(sb, od.item, name, depth)
		}
		return
	}

	indent := strings.Repeat("  ", depth)
	off, _ := d.Offset()
	size, _ := d.Size()
	label := typeLabel(d)
	if name != "" {
		label = name + ": " + label
	}
	fmt.Fprintf(sb, "%s%#x (%#x) %s\n", indent, off, size, label)

	switch c := d.(type) {
	case *blockDatum:
		for _, f := range c.fields {
			visualizeInto(sb, f.datum, f.decl.Name, depth+1)
		}
	case *arrayDatum:
		if len(c.elems) == 0 {
			return
		}
		if _, scalarRun := c.elems[0].(*scalarDatum); scalarRun {
			elemOff, _ := c.elems[0].Offset()
			fmt.Fprintf(sb, "%s  %#x ...\n", indent, elemOff)
			return
		}
		for _, elem := range c.elems {
			visualizeInto(sb, elem, "", depth+1)
		}
	}
}

func typeLabel(d Datum) string {
	if ad, ok := d.(*arrayDatum); ok {
		return fmt.Sprintf("%s (%d)", ad.model.TypeName(), len(ad.elems))
	}
	return d.Model().TypeName()
}
