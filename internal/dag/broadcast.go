package dag

import "fmt"

// expand applies the broadcast rule to a constructor's arguments and
// returns one row of scalar arguments per instance.
//
// Without sequences there is exactly one row, equal to args. Otherwise
// there are max(len) rows and row i takes element i mod len of every
// sequence; scalars repeat unchanged in every row.
func expand(kind string, args []Arg) ([][]Value, error) {
	n := 1
	for i, a := range args {
		switch a := a.(type) {
		case nil:
			return nil, &ArgError{Kind: kind, Index: i, Err: ErrNilArg}
		case sequence:
			if a.length() == 0 {
				return nil, &ArgError{Kind: kind, Index: i, Err: ErrEmptySequence}
			}
			n = max(n, a.length())
		case Value:
		default:
			return nil, &ArgError{Kind: kind, Index: i, Err: fmt.Errorf("unsupported argument type %T", a)}
		}
	}

	rows := make([][]Value, n)
	for i := range rows {
		row := make([]Value, len(args))
		for j, a := range args {
			if seq, ok := a.(sequence); ok {
				row[j] = seq.item(i % seq.length())
				continue
			}
			row[j] = a.(Value)
		}
		rows[i] = row
	}
	return rows, nil
}
