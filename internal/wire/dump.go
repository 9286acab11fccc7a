package wire

import (
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/minicollider/internal/ir"
)

// Dump writes g the way the engine prints a graph it has parsed: each
// table's values followed by a space, then every operation's kind, rate
// tag and input addresses.
func Dump(w io.Writer, g *ir.Graph) {
	fmt.Fprint(w, "Constants: ")
	for _, c := range g.Constants {
		fmt.Fprint(w, FormatFloat(c), " ")
	}
	fmt.Fprint(w, "\nControls: ")
	for _, c := range g.Controls {
		fmt.Fprint(w, FormatFloat(c), " ")
	}
	fmt.Fprint(w, "\nOperations:\n")
	for _, op := range g.Ops {
		fmt.Fprintf(w, "  Name: %s\n", op.Kind)
		fmt.Fprintf(w, "  Rate: %c\n", op.Rate.Byte())
		fmt.Fprint(w, "  Args: ")
		for _, in := range op.Inputs {
			fmt.Fprint(w, in.Address(), " ")
		}
		fmt.Fprint(w, "\n")
	}
}

// FormatFloat prints f with the fewest digits that read back as the same
// float32.
func FormatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
